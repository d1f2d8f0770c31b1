package app

import (
	"context"
	"errors"
	"time"

	"github.com/quantmind-br/pkgjson-go/internal/domain"
	"github.com/quantmind-br/pkgjson-go/internal/utils"
	"github.com/quantmind-br/pkgjson-go/pkg/pkgjson"
)

// legacyField names the entry point audited for packages without "exports"
const legacyField = "main"

type auditJob struct {
	field      string
	key        string
	conditions pkgjson.Conditions
	skip       bool
}

// Audit resolves every "exports" and "imports" key of the package that
// contains dir under each condition set. Pattern keys are reported as
// skipped. Relative targets must exist on disk. A package without
// "exports" has its legacy entry point audited under "main".
func (s *Service) Audit(ctx context.Context, dir string, conditionSets [][]string) (*domain.AuditReport, error) {
	startTime := time.Now()

	loaded, err := s.loader.Closest(ctx, dir)
	if err != nil {
		return nil, err
	}
	m := loaded.Manifest

	if len(conditionSets) == 0 {
		conditionSets = s.config.AuditConditionSets()
	}
	sets := make([]pkgjson.Conditions, len(conditionSets))
	for i, names := range conditionSets {
		sets[i] = pkgjson.NewConditions(names...)
	}

	var jobs []auditJob
	addJobs := func(field string, keys []string) {
		for _, key := range keys {
			if pkgjson.IsPattern(key) {
				jobs = append(jobs, auditJob{field: field, key: key, skip: true})
				continue
			}
			for _, set := range sets {
				jobs = append(jobs, auditJob{field: field, key: key, conditions: set})
			}
		}
	}
	if m.HasExports() {
		addJobs("exports", m.ExportKeys())
	} else if m.Main(pkgjson.KindCJS) != "" || m.Module() != "" || m.Browser() != "" {
		addJobs(legacyField, []string{"."})
	}
	addJobs("imports", m.ImportKeys())

	log := s.logger.WithPackage(loaded.Dir)
	log.Info().
		Str("name", m.Name()).
		Int("jobs", len(jobs)).
		Int("condition_sets", len(sets)).
		Msg("Starting audit")

	indices := make([]int, len(jobs))
	for i := range indices {
		indices[i] = i
	}
	results := make([]domain.AuditResult, len(jobs))

	var advance func()
	if s.progress != nil && len(jobs) > 0 {
		bar := utils.NewProgressBar(len(jobs), utils.DescAuditing, s.progress)
		defer func() { _ = bar.Finish() }()
		advance = func() { _ = bar.Add(1) }
	}

	utils.ParallelForEach(ctx, indices, s.config.Audit.Workers, func(ctx context.Context, i int) error {
		results[i] = s.auditOne(loaded, jobs[i])
		if advance != nil {
			advance()
		}
		return nil
	})

	if err := ctx.Err(); err != nil {
		log.Warn().Msg("Audit cancelled")
		return nil, err
	}

	report := &domain.AuditReport{
		ManifestPath: loaded.Path,
		PackageName:  m.Name(),
		Results:      results,
		Duration:     time.Since(startTime),
	}

	log.Info().
		Str("name", m.Name()).
		Dur("total_duration", report.Duration).
		Int("ok", report.Count(domain.AuditOK)).
		Int("failed", report.Count(domain.AuditFailed)).
		Int("missing", report.Count(domain.AuditMissing)).
		Int("unavailable", report.Count(domain.AuditUnavailable)).
		Int("skipped", report.Count(domain.AuditSkipped)).
		Msg("Audit completed")

	return report, nil
}

func (s *Service) auditOne(loaded *domain.LoadedManifest, job auditJob) domain.AuditResult {
	result := domain.AuditResult{Field: job.field, Key: job.key}
	if job.skip {
		result.Status = domain.AuditSkipped
		return result
	}
	result.Conditions = job.conditions.Names()

	var target string
	var err error
	if job.field == "imports" {
		target, err = pkgjson.ResolveImport(loaded.Manifest, job.key, job.conditions)
	} else {
		target, err = pkgjson.ResolveExport(loaded.Manifest, job.key, job.conditions)
	}

	switch {
	case errors.Is(err, pkgjson.ErrPackagePathNotExported), errors.Is(err, pkgjson.ErrPackageImportNotDefined):
		result.Status = domain.AuditUnavailable
		result.Error = err.Error()
		return result
	case err != nil:
		result.Status = domain.AuditFailed
		result.Error = err.Error()
		return result
	}

	result.Target = target
	result.Status = domain.AuditOK
	legacy := job.field == legacyField
	if p := targetPath(loaded.Dir, target, legacy); p != "" {
		if statErr := statTarget(p, legacy); statErr != nil {
			result.Status = domain.AuditMissing
			result.Error = statErr.Error()
		}
	}
	return result
}
