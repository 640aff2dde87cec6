package analyzecmder_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	analyzecmder "github.com/papercomputeco/worstcase/cmd/wca/analyze"
	"github.com/papercomputeco/worstcase/pkg/analysis"
	"github.com/papercomputeco/worstcase/pkg/choicepoint"
	"github.com/papercomputeco/worstcase/pkg/cost"
	"github.com/papercomputeco/worstcase/pkg/dotdir"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/policy"
	"github.com/papercomputeco/worstcase/pkg/storage/sqlite"
	"github.com/papercomputeco/worstcase/pkg/trace"
)

// writeTrace records a search with paths [L, L], [L, R] and [R]. Under the
// depth model the first two cost 2; [L, R] wins the tie.
func writeTrace(file string) {
	var buf bytes.Buffer
	w := trace.NewWriter(&buf)

	br := path.Branch{Method: "sort", Offset: 3}
	cp := func(id choicepoint.ID, choice int) analysis.ChoicePoint {
		return analysis.ChoicePoint{ID: id, Decision: path.Decision{Branch: br, Choice: choice}}
	}

	w.ChoiceAdvanced(cp(1, 0))
	w.ChoiceAdvanced(cp(2, 0))
	w.StateAdvanced(true, nil)
	w.ChoiceAdvanced(cp(2, 1))
	w.StateAdvanced(true, nil)
	w.ChoiceAdvanced(cp(1, 1))
	w.StateAdvanced(true, nil)
	Expect(w.SearchFinished()).To(Succeed())

	Expect(os.WriteFile(file, buf.Bytes(), 0o644)).To(Succeed())
}

var _ = Describe("analyze", func() {
	var (
		tmpDir    string
		configDir string
		traceFile string
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		configDir = filepath.Join(tmpDir, ".wca")
		traceFile = filepath.Join(tmpDir, "run.jsonl")
		writeTrace(traceFile)
		GinkgoT().Setenv("HOME", tmpDir)
	})

	run := func(args ...string) (string, error) {
		cmd := analyzecmder.NewAnalyzeCmd()
		cmd.PersistentFlags().String("config-dir", configDir, "")
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}

	It("requires a trace", func() {
		_, err := run("--measured", "sort")
		Expect(err).To(HaveOccurred())
	})

	It("requires measured methods", func() {
		_, err := run("--trace", traceFile)
		Expect(err).To(MatchError(ContainSubstring("must set either measured methods or symbolic methods")))
	})

	It("learns and stores a policy", func() {
		out, err := run("--trace", traceFile, "--measured", "sort", "--history-size", "1",
			"--output", filepath.Join(tmpDir, "out"), "--show-costs")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("depth=2"))
		Expect(out).To(ContainSubstring("3 finished"))

		db, err := sqlite.NewDriver(filepath.Join(configDir, "policies.db"))
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()

		rec, err := db.Get(context.Background(), "sort")
		Expect(err).NotTo(HaveOccurred())
		pol, err := policy.Decode(rec.Kind, rec.Data)
		Expect(err).NotTo(HaveOccurred())
		Expect(pol.MaxHistorySize()).To(Equal(1))
		Expect(pol.CountsForChoice(0)).To(Equal(1))
		Expect(pol.CountsForChoice(1)).To(Equal(1))
		Expect(rec.Observations).To(Equal(2))

		Expect(filepath.Join(tmpDir, "out", "wcpath_sort.txt")).To(BeAnExistingFile())

		state, err := dotdir.NewManager().LoadLastRun(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state.PolicyKey).To(Equal("sort"))
		Expect(state.Cost).To(Equal(int64(2)))
		Expect(state.Model).To(Equal(cost.ModelDepth))
		Expect(state.Saved).To(BeTrue())
	})

	It("writes debug logs to a file", func() {
		logFile := filepath.Join(tmpDir, "wca.log")
		_, err := run("--trace", traceFile, "--measured", "sort", "--log-file", logFile)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"msg":"worst-case analysis configured"`))
		Expect(string(data)).To(ContainSubstring(`"level":"DEBUG"`))
	})

	It("records the replayed trace", func() {
		recorded := filepath.Join(tmpDir, "copy.jsonl")
		_, err := run("--trace", traceFile, "--measured", "sort", "--record", recorded)
		Expect(err).NotTo(HaveOccurred())

		want, err := os.ReadFile(traceFile)
		Expect(err).NotTo(HaveOccurred())
		got, err := os.ReadFile(recorded)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal(string(want)))

		out, err := run("--trace", recorded, "--measured", "sort")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("depth=2"))
		Expect(out).To(ContainSubstring("3 finished"))
	})

	It("unifies repeated runs", func() {
		_, err := run("--trace", traceFile, "--measured", "sort")
		Expect(err).NotTo(HaveOccurred())
		_, err = run("--trace", traceFile, "--measured", "sort", "--unify")
		Expect(err).NotTo(HaveOccurred())

		state, err := dotdir.NewManager().LoadLastRun(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state.Unified).To(BeTrue())
	})
})
