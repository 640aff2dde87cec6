// Package analyzecmder provides the analyze command, which replays a recorded
// exploration trace through the worst-case analysis.
package analyzecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/worstcase/cmd/wca/sqlitepath"
	"github.com/papercomputeco/worstcase/pkg/analysis"
	"github.com/papercomputeco/worstcase/pkg/cliui"
	"github.com/papercomputeco/worstcase/pkg/config"
	"github.com/papercomputeco/worstcase/pkg/dotdir"
	"github.com/papercomputeco/worstcase/pkg/logger"
	"github.com/papercomputeco/worstcase/pkg/trace"
)

type AnalyzeCommander struct {
	tracePath string
	jsonLogs  bool
	logFile   string
	record    string
	debug     bool
	configDir string

	// registry-backed flags, read back through viper
	measured    []string
	symbolic    []string
	costModel   string
	generator   string
	historySize uint
	adaptive    bool
	unify       bool
	serialize   bool
	sqlitePath  string
	output      string
	showCosts   bool

	logger *slog.Logger
}

var analyzeFlags = []string{
	config.FlagMeasured,
	config.FlagSymbolic,
	config.FlagCostModel,
	config.FlagGenerator,
	config.FlagHistorySize,
	config.FlagAdaptive,
	config.FlagUnify,
	config.FlagSerialize,
	config.FlagSQLite,
	config.FlagOutput,
	config.FlagShowCosts,
}

const analyzeLongDesc string = `Analyze a recorded exploration trace.

The trace is a JSON-lines file of engine callbacks (instruction, choice,
end, exception, constraint, search_finished). Every finished path is
costed; the most expensive one becomes the worst-case path, from which a
branch policy is generated and saved to the policy database.

Settings come from flags, WCA_* environment variables and config.toml,
in that order.

Examples:
  wca analyze --trace run.jsonl --measured sort
  wca analyze -t run.jsonl -m sort -k 2 --unify --output out/
  cat run.jsonl | wca analyze -t - -m sort --record copy.jsonl`

const analyzeShortDesc string = "Analyze a recorded exploration trace"

func NewAnalyzeCmd() *cobra.Command {
	cmder := &AnalyzeCommander{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.tracePath, "trace", "t", "", "Path to the JSON-lines event trace (- for stdin)")
	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Emit logs as JSON")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write debug-level JSON logs to this file")
	cmd.Flags().StringVar(&cmder.record, "record", "", "Write the replayed callbacks to this file as a new trace")
	_ = cmd.MarkFlagRequired("trace")

	config.AddStringSliceFlag(cmd, config.Flags, config.FlagMeasured, &cmder.measured)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagSymbolic, &cmder.symbolic)
	config.AddStringFlag(cmd, config.Flags, config.FlagCostModel, &cmder.costModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenerator, &cmder.generator)
	config.AddUintFlag(cmd, config.Flags, config.FlagHistorySize, &cmder.historySize)
	config.AddBoolFlag(cmd, config.Flags, config.FlagAdaptive, &cmder.adaptive)
	config.AddBoolFlag(cmd, config.Flags, config.FlagUnify, &cmder.unify)
	config.AddBoolFlag(cmd, config.Flags, config.FlagSerialize, &cmder.serialize)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagOutput, &cmder.output)
	config.AddBoolFlag(cmd, config.Flags, config.FlagShowCosts, &cmder.showCosts)

	return cmd
}

func (c *AnalyzeCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(!c.jsonLogs),
		logger.WithJSON(c.jsonLogs),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()

		c.logger = logger.Multi(c.logger, logger.New(
			logger.WithDebug(true),
			logger.WithJSON(true),
			logger.WithWriter(f),
		))
	}

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, analyzeFlags)
	cfg := config.FromViper(v)

	driver, err := sqlitepath.Open(cfg.Storage.SQLitePath, c.configDir, false, c.logger)
	if err != nil {
		return fmt.Errorf("opening policy database: %w", err)
	}
	defer driver.Close()

	listener, err := analysis.NewListener(analysis.Config{
		MeasuredMethods: cfg.Analysis.MeasuredMethods,
		SymbolicMethods: cfg.Analysis.SymbolicMethods,
		CostModel:       cfg.Analysis.CostModel,
		Generator:       cfg.Policy.Generator,
		HistorySize:     int(cfg.Policy.HistorySize),
		Adaptive:        cfg.Policy.Adaptive,
		Serialize:       cfg.Policy.Serialize,
		Unify:           cfg.Policy.Unify,
		OutputDir:       cfg.Visualize.OutputPath,
		ShowCosts:       cfg.Visualize.ShowCosts,
		Storage:         driver,
		Logger:          c.logger,
	})
	if errors.Is(err, analysis.ErrNoTargets) {
		return fmt.Errorf("%w (use --measured or set analysis.measured_methods)", err)
	}
	if err != nil {
		return err
	}

	var sink trace.Sink = listener
	var recorder *trace.Writer
	if c.record != "" {
		f, err := os.Create(c.record)
		if err != nil {
			return fmt.Errorf("creating trace record: %w", err)
		}
		defer f.Close()

		recorder = trace.NewWriter(f)
		sink = trace.Tee(recorder, listener)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sum trace.Summary
	err = cliui.Step(out, "Replaying "+c.tracePath, func() error {
		var replayErr error
		sum, replayErr = c.replay(ctx, cmd.InOrStdin(), sink)
		return replayErr
	})
	if err != nil {
		return err
	}
	if recorder != nil {
		if err := recorder.SearchFinished(); err != nil {
			return fmt.Errorf("writing trace record: %w", err)
		}
		c.logger.Debug("trace recorded", "path", c.record)
	}
	if !sum.Finished {
		c.logger.Warn("trace ended without search_finished", "records", sum.Records)
	}

	res, err := listener.SearchFinished(ctx)
	if err != nil {
		return err
	}

	c.report(out, res)
	c.saveLastRun(res)
	return nil
}

func (c *AnalyzeCommander) replay(ctx context.Context, stdin io.Reader, sink trace.Sink) (trace.Summary, error) {
	if c.tracePath == "-" {
		return trace.Replay(ctx, stdin, sink)
	}

	f, err := os.Open(c.tracePath)
	if err != nil {
		return trace.Summary{}, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	return trace.Replay(ctx, f, sink)
}

func (c *AnalyzeCommander) report(w io.Writer, res *analysis.Result) {
	const width = 14
	fmt.Fprintln(w)

	if res.Champion == nil {
		fmt.Fprintf(w, "  %s\n\n", cliui.DimStyle.Render("No path finished; nothing to learn."))
		return
	}

	fmt.Fprintln(w, cliui.KeyValue("Worst case", width,
		fmt.Sprintf("%s (%d decisions)", cliui.CostStyle.Render(res.Champion.State().String()), res.Champion.Len())))
	fmt.Fprintln(w, cliui.KeyValue("Paths", width,
		fmt.Sprintf("%d finished, %d choice points", res.Stats.PathsFinished, res.Stats.NewChoices)))

	if res.Policy != nil {
		status := "in memory"
		switch {
		case res.Saved && res.Unified:
			status = "unified and saved"
		case res.Saved:
			status = "saved"
		}
		fmt.Fprintln(w, cliui.KeyValue("Policy", width,
			fmt.Sprintf("%s (%s, history %s, %s)", res.PolicyKey, res.Policy.Kind(),
				strconv.Itoa(res.Policy.MaxHistorySize()), status)))
	}
	if res.PathFile != "" {
		fmt.Fprintln(w, cliui.KeyValue("Path export", width, res.PathFile))
	}
	fmt.Fprintln(w, cliui.KeyValue("Run", width, cliui.HashStyle.Render(res.RunID)))

	for _, f := range res.Failures {
		fmt.Fprintf(w, "  %s %s\n", cliui.WarnMark, f)
	}
	fmt.Fprintln(w)
}

func (c *AnalyzeCommander) saveLastRun(res *analysis.Result) {
	m := dotdir.NewManager()
	target, err := m.Target(c.configDir)
	if err != nil || target == "" {
		c.logger.Debug("no .wca directory, last run not recorded")
		return
	}

	state := &dotdir.RunState{
		RunID:      res.RunID,
		PolicyKey:  res.PolicyKey,
		Saved:      res.Saved,
		Unified:    res.Unified,
		PathFile:   res.PathFile,
		FinishedAt: time.Now().UTC(),
	}
	if res.Champion != nil {
		state.Model = res.Champion.State().Model
		state.Cost = res.Champion.Cost()
		state.Decisions = res.Champion.Len()
	}
	for _, f := range res.Failures {
		state.Failures = append(state.Failures, f.Error())
	}

	if err := m.SaveLastRun(state, c.configDir); err != nil {
		c.logger.Warn("last run not recorded", "error", err)
	}
}
