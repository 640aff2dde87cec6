package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/papercomputeco/worstcase/pkg/export"
	"github.com/papercomputeco/worstcase/pkg/path"
	"github.com/papercomputeco/worstcase/pkg/policy"
	"github.com/papercomputeco/worstcase/pkg/storage"
)

// Result is what a finished search produced.
type Result struct {
	// RunID identifies this search in logs.
	RunID string

	// Champion is the worst-case path, nil when no path finished.
	Champion *path.Path

	// Policy was generated from Champion, unified with the stored policy
	// when requested.
	Policy policy.Policy

	// PolicyKey is the storage key of Policy.
	PolicyKey string

	// Unified reports whether Policy includes a previously stored policy.
	Unified bool

	// Saved reports whether Policy was written to storage.
	Saved bool

	// PathFile is the exported path, empty when export was disabled or
	// failed.
	PathFile string

	Stats Stats

	// Failures are the non-fatal persistence and export errors. The
	// champion and policy remain valid when they occur.
	Failures []error
}

// SearchFinished turns the champion into a policy, persists it and exports
// the champion. Only a failure to generate the policy is returned as an
// error; storage and export failures are logged and collected in
// Result.Failures.
func (l *Listener) SearchFinished(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Champion:  l.tracker.Current(),
		PolicyKey: PolicyKey(l.measured),
		Stats:     l.Stats(),
	}
	log := l.logger.With("run_id", res.RunID)

	if res.Champion == nil {
		log.Info("search finished without a completed path")
		return res, nil
	}

	pol, err := l.generator.Generate(l.measured, res.Champion)
	if err != nil {
		return nil, fmt.Errorf("generating policy: %w", err)
	}
	res.Policy = pol

	if l.cfg.Unify {
		unified, err := l.unifyStored(ctx, res.PolicyKey, pol)
		switch {
		case err != nil:
			res.fail(log, "policy unification skipped", err)
		case unified != nil:
			res.Policy = unified
			res.Unified = true
		}
	}

	if l.cfg.Serialize {
		if err := policy.Save(ctx, l.cfg.Storage, res.PolicyKey, res.Policy); err != nil {
			res.fail(log, "policy not saved", err)
		} else {
			res.Saved = true
			log.Info("policy saved", "key", res.PolicyKey, "unified", res.Unified)
		}
	}

	if l.cfg.OutputDir != "" {
		var costs []int64
		if l.cfg.ShowCosts {
			costs = l.costs
		}
		file, err := export.WritePath(l.cfg.OutputDir, l.measured, res.Champion, costs)
		if err != nil {
			res.fail(log, "worst-case path not exported", err)
		} else {
			res.PathFile = file
			log.Info("worst-case path exported", "file", file)
		}
	}

	log.Info("search finished",
		"cost", res.Champion.Cost(),
		"decisions", res.Champion.Len(),
		"paths", res.Stats.PathsFinished,
		"new_choices", res.Stats.NewChoices,
	)
	return res, nil
}

func (r *Result) fail(log *slog.Logger, msg string, err error) {
	r.Failures = append(r.Failures, err)
	log.Warn(msg, "error", err)
}

// unifyStored returns pol unified with the policy stored under key. It
// returns nil, nil when nothing is stored.
func (l *Listener) unifyStored(ctx context.Context, key string, pol policy.Policy) (policy.Policy, error) {
	stored, err := policy.Load(ctx, l.cfg.Storage, key)
	var notFound storage.NotFoundError
	if errors.As(err, &notFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return policy.Unify(pol, stored)
}
