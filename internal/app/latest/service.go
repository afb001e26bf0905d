package latest

import (
	"context"
	"fmt"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Fetch returns the highest versioned record stored for name within group, or
// the default record when none exists. Names match exactly, blank ones included.
// The collection is only read.
func (s *Service) Fetch(ctx context.Context, name, group string, coll Collection) (domain.Record, error) {
	record, found, err := s.Lookup(ctx, name, group, coll)
	if err != nil {
		return domain.Record{}, err
	}
	if !found {
		return domain.DefaultRecord(name, group), nil
	}
	return record, nil
}

// Lookup is Fetch without the default: found is false when nothing is stored.
func (s *Service) Lookup(ctx context.Context, name, group string, coll Collection) (domain.Record, bool, error) {
	docs, err := coll.Find(ctx, domain.RecordFilter(name, group))
	if err != nil {
		return domain.Record{}, false, err
	}

	var best domain.Record
	var bestVersion string
	found := false
	for _, doc := range docs {
		record, err := domain.RecordFromDocument(doc)
		if err != nil {
			return domain.Record{}, false, err
		}
		if record.SchemaName != name || record.SchemaGroup != group {
			continue
		}
		if _, err := domain.ParseVersion(record.Version); err != nil {
			return domain.Record{}, false, fmt.Errorf("record %s/%s: %w", group, name, err)
		}
		if !found {
			best, bestVersion, found = record, record.Version, true
			continue
		}
		cmp, err := domain.CompareVersions(record.Version, bestVersion)
		if err != nil {
			return domain.Record{}, false, err
		}
		if cmp > 0 {
			best, bestVersion = record, record.Version
		}
	}

	return best, found, nil
}
