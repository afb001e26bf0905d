package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/osvaldoandrade/schemaver/internal/app/diff"
	"github.com/osvaldoandrade/schemaver/internal/app/latest"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type Service struct {
	latest        *latest.Service
	validator     Validator
	differ        Differ
	fingerprinter Fingerprinter
	clock         Clock
	logger        *slog.Logger
}

// NewService wires a publisher. validator may be nil to skip schema checks.
func NewService(validator Validator, differ Differ, fingerprinter Fingerprinter, clock Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		latest:        latest.NewService(),
		validator:     validator,
		differ:        differ,
		fingerprinter: fingerprinter,
		clock:         clock,
		logger:        logger,
	}
}

// Publish compares req.Schema with the latest stored version and appends a
// new record under the bumped version. Nothing is stored when the schema is
// unchanged, when the comparison fails or when req.DryRun is set.
func (s *Service) Publish(ctx context.Context, coll Collection, req Request) (Result, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Result{}, domain.ErrSchemaNameRequired
	}
	group := strings.TrimSpace(req.Group)
	if group == "" {
		return Result{}, domain.ErrSchemaGroupRequired
	}
	if len(req.Schema) == 0 {
		return Result{}, ErrSchemaRequired
	}

	if s.validator != nil {
		if err := s.validator.Validate(ctx, req.Schema); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
	}

	current, stored, err := s.latest.Lookup(ctx, name, group, coll)
	if err != nil {
		return Result{}, err
	}
	if !stored {
		current = domain.DefaultRecord(name, group)
	}

	report, err := diff.Diff(current.Schema, req.Schema)
	if err != nil {
		return Result{}, fmt.Errorf("compare %s/%s: %w", group, name, err)
	}

	result := Result{
		Name:     name,
		Group:    group,
		Severity: report.Severity,
		Changes:  report.Changes,
	}
	bump := report.Severity
	if stored {
		result.PreviousVersion = current.Version
		// A stored record with an empty schema still owns its version.
		if bump == domain.UpdateFirstRun {
			bump = domain.UpdateMajor
		}
	}

	result.Version, err = domain.NextVersion(current.Version, bump)
	if err != nil {
		return Result{}, err
	}

	result.Fingerprint, err = s.fingerprinter.Fingerprint(ctx, req.Schema)
	if err != nil {
		return Result{}, fmt.Errorf("fingerprint schema: %w", err)
	}

	if report.Severity == domain.UpdateNone {
		s.logger.Info("schema unchanged",
			slog.String("group", group),
			slog.String("name", name),
			slog.String("version", result.Version),
		)
		return result, nil
	}

	result.MergePatch, err = s.differ.MergePatch(ctx, current.Schema, req.Schema)
	if err != nil {
		return Result{}, fmt.Errorf("merge patch: %w", err)
	}
	result.PublishedAt = s.clock.Now().UTC()

	if req.DryRun {
		return result, nil
	}

	record := domain.Record{
		SchemaGroup: group,
		SchemaName:  name,
		Version:     result.Version,
		Schema:      req.Schema,
		PublishedAt: result.PublishedAt,
	}
	ids, err := coll.Insert(ctx, record.Document())
	if err != nil {
		return Result{}, fmt.Errorf("store %s/%s %s: %w", group, name, result.Version, err)
	}
	if len(ids) > 0 {
		result.ID = ids[0]
	}
	result.Stored = true

	s.logger.Info("schema published",
		slog.String("group", group),
		slog.String("name", name),
		slog.String("severity", report.Severity.String()),
		slog.String("version", result.Version),
	)
	return result, nil
}
