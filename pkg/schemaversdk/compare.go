package schemaversdk

import (
	"context"

	"github.com/osvaldoandrade/schemaver/internal/app/diff"
	latestapp "github.com/osvaldoandrade/schemaver/internal/app/latest"
	"github.com/osvaldoandrade/schemaver/internal/domain"
	"github.com/osvaldoandrade/schemaver/internal/infra/filesystem"
)

type Document = domain.Document

// Update is the classification of the change between two schemas.
type Update = domain.UpdateSeverity

const (
	UpdateFirstRun = domain.UpdateFirstRun
	UpdateNone     = domain.UpdateNone
	UpdateMinor    = domain.UpdateMinor
	UpdateMajor    = domain.UpdateMajor
)

type (
	Change     = diff.Change
	ChangeKind = diff.ChangeKind
	Report     = diff.Report
)

const (
	ChangeAdded   = diff.KindAdded
	ChangeRemoved = diff.KindRemoved
	ChangeChanged = diff.KindChanged
)

// Record is one stored version of a schema.
type Record = domain.Record

// Collection is the read side of a document collection.
type Collection interface {
	Find(ctx context.Context, filter Document) ([]Document, error)
}

// CompareSchemas classifies the update from before to after.
func CompareSchemas(before, after Document) (Update, error) {
	return diff.Compare(before, after)
}

// Diff classifies the update and lists every change behind it.
func Diff(before, after Document) (Report, error) {
	return diff.Diff(before, after)
}

// FetchLatestSchema returns the highest version of name within group stored
// in coll, or a 1.0.0 record with an empty schema when there is none.
func FetchLatestSchema(ctx context.Context, name, group string, coll Collection) (Record, error) {
	return latestapp.NewService().Fetch(ctx, name, group, coll)
}

// DefaultRecord is the record FetchLatestSchema returns for an unknown schema.
func DefaultRecord(name, group string) Record {
	return domain.DefaultRecord(name, group)
}

// ParseDocument decodes a JSON object.
func ParseDocument(data []byte) (Document, error) {
	value, err := filesystem.Decode(data, filesystem.FormatJSON)
	if err != nil {
		return nil, err
	}
	entries, ok := domain.AsMapping(value)
	if !ok {
		return nil, filesystem.ErrDocumentNotObject
	}
	return Document(entries), nil
}
