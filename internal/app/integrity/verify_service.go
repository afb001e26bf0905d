package integrity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/osvaldoandrade/schemaver/internal/app/diff"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

const (
	IssueRecordMalformed  = "record_malformed"
	IssueVersionInvalid   = "version_invalid"
	IssueVersionDuplicate = "version_duplicate"
	IssueUnhandledDiff    = "unhandled_diff"
	IssueBumpTooSmall     = "bump_too_small"
)

type VerifyService struct{}

func NewVerifyService() *VerifyService {
	return &VerifyService{}
}

// Verify scans every record in coll and reports problems per schema. Store
// errors abort the scan; record problems become issues.
func (s *VerifyService) Verify(ctx context.Context, coll Collection, opts VerifyOptions) (VerifyResult, error) {
	docs, err := coll.Find(ctx, domain.Document{})
	if err != nil {
		return VerifyResult{}, err
	}

	result := VerifyResult{Records: len(docs)}
	histories := make(map[string][]domain.Record)
	var keys []string
	for i, doc := range docs {
		record, err := domain.RecordFromDocument(doc)
		if err != nil {
			result.Issues = append(result.Issues, newIssue(fmt.Sprintf("#%d", i), "", IssueRecordMalformed, err))
			continue
		}
		key := record.SchemaGroup + "/" + record.SchemaName
		if _, ok := histories[key]; !ok {
			keys = append(keys, key)
		}
		histories[key] = append(histories[key], record)
	}
	sort.Strings(keys)

	result.Schemas = len(keys)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return VerifyResult{}, err
		}
		issues := verifySchema(key, histories[key], opts)
		if len(issues) == 0 {
			result.Valid++
			continue
		}
		result.Issues = append(result.Issues, issues...)
	}
	return result, nil
}

func verifySchema(key string, records []domain.Record, opts VerifyOptions) []Issue {
	var issues []Issue
	valid := make([]domain.Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		version, err := domain.ParseVersion(record.Version)
		if err != nil {
			issues = append(issues, newIssue(key, record.Version, IssueVersionInvalid, err))
			continue
		}
		normalized := version.String()
		if _, ok := seen[normalized]; ok {
			issues = append(issues, newIssue(key, normalized, IssueVersionDuplicate, errors.New("version stored more than once")))
			continue
		}
		seen[normalized] = struct{}{}
		valid = append(valid, record)
	}
	if !opts.Deep || len(issues) > 0 {
		return issues
	}

	sort.SliceStable(valid, func(i, j int) bool {
		cmp, _ := domain.CompareVersions(valid[i].Version, valid[j].Version)
		return cmp < 0
	})
	for i := 1; i < len(valid); i++ {
		prev, cur := valid[i-1], valid[i]
		severity, err := diff.Compare(prev.Schema, cur.Schema)
		if err != nil {
			issues = append(issues, newIssue(key, cur.Version, IssueUnhandledDiff, err))
			continue
		}
		if severity == domain.UpdateFirstRun {
			severity = domain.UpdateMajor
		}
		required, err := domain.NextVersion(prev.Version, severity)
		if err != nil {
			issues = append(issues, newIssue(key, cur.Version, IssueVersionInvalid, err))
			continue
		}
		cmp, err := domain.CompareVersions(cur.Version, required)
		if err != nil {
			issues = append(issues, newIssue(key, cur.Version, IssueVersionInvalid, err))
			continue
		}
		if cmp < 0 {
			issues = append(issues, newIssue(key, cur.Version, IssueBumpTooSmall,
				fmt.Errorf("%s change from %s needs at least %s", severity, prev.Version, required)))
		}
	}
	return issues
}

func newIssue(schema, version, code string, err error) Issue {
	return Issue{
		Schema:  schema,
		Version: version,
		Code:    code,
		Message: err.Error(),
	}
}
