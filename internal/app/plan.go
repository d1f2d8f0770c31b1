package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quantmind-br/pkgjson-go/internal/plan"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
)

// CheckResult is the outcome of one plan check
type CheckResult struct {
	Check  plan.Check
	Target string
	Error  error
	// Skipped is set for checks that never ran because an earlier failure
	// stopped the plan. Error then wraps utils.ErrNotRun.
	Skipped  bool
	Duration time.Duration
}

// Passed reports whether the check met its expectation
func (r CheckResult) Passed() bool {
	return r.Error == nil
}

// PlanSummary counts check outcomes
type PlanSummary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// SummarizeChecks tallies results
func SummarizeChecks(results []CheckResult) PlanSummary {
	sum := PlanSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			sum.Skipped++
		case r.Passed():
			sum.Passed++
		default:
			sum.Failed++
		}
	}
	return sum
}

// RunPlan executes every check of the plan. Without continue_on_error the
// first failing check cancels the remaining ones.
func (s *Service) RunPlan(ctx context.Context, p *plan.Plan) ([]CheckResult, error) {
	startTime := time.Now()
	totalChecks := len(p.Checks)

	s.logger.Info().
		Int("checks", totalChecks).
		Bool("continue_on_error", p.Options.ContinueOnError).
		Msg("Starting plan execution")

	results := make([]CheckResult, totalChecks)
	if totalChecks == 0 {
		return results, nil
	}

	var resultsMu sync.Mutex
	var firstError error
	var firstErrorMu sync.Mutex

	runCtx := ctx
	var cancel context.CancelFunc
	if !p.Options.ContinueOnError {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	indices := make([]int, totalChecks)
	for i := range indices {
		indices[i] = i
	}

	errs := utils.ParallelForEach(runCtx, indices, p.Options.Concurrency, func(ctx context.Context, idx int) error {
		checkStart := time.Now()
		check := p.Checks[idx]

		var target string
		res, err := s.Resolve(ctx, check.Package, check.Request, s.Conditions(check.Conditions, check.Require))
		if res != nil {
			target = res.Target
		}
		if err != nil && !IsResolutionError(err) {
			// Load failures never satisfy an expectation.
			err = fmt.Errorf("%w: %v", plan.ErrExpectationFailed, err)
		} else {
			err = check.Evaluate(target, err)
		}

		resultsMu.Lock()
		results[idx] = CheckResult{Check: check, Target: target, Error: err, Duration: time.Since(checkStart)}
		resultsMu.Unlock()

		if err != nil {
			s.logger.Error().
				Err(err).
				Int("check_idx", idx).
				Str("path", check.Package).
				Str("specifier", check.Request).
				Msg("Check failed")

			firstErrorMu.Lock()
			if firstError == nil {
				firstError = fmt.Errorf("check %s: %w", check.Name(), err)
			}
			firstErrorMu.Unlock()
			if cancel != nil {
				cancel()
			}
			return err
		}

		s.logger.Debug().
			Int("check_idx", idx).
			Str("specifier", check.Request).
			Str("target", target).
			Msg("Check passed")
		return nil
	})

	for idx, err := range errs {
		if errors.Is(err, utils.ErrNotRun) {
			results[idx] = CheckResult{Check: p.Checks[idx], Error: err, Skipped: true}
		}
	}

	if ctx.Err() != nil {
		s.logger.Warn().Msg("Plan execution cancelled")
		return results, ctx.Err()
	}

	sum := SummarizeChecks(results)
	s.logger.Info().
		Dur("total_duration", time.Since(startTime)).
		Int("total", sum.Total).
		Int("passed", sum.Passed).
		Int("failed", sum.Failed).
		Int("skipped", sum.Skipped).
		Msg("Plan execution completed")

	if firstError != nil {
		return results, fmt.Errorf("plan completed with %d/%d failures, %d skipped: %w", sum.Failed, sum.Total, sum.Skipped, firstError)
	}
	return results, nil
}
