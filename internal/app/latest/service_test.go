package latest

import (
	"context"
	"errors"
	"testing"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type fakeCollection struct {
	docs   []domain.Document
	err    error
	filter domain.Document
}

func (f *fakeCollection) Find(ctx context.Context, filter domain.Document) ([]domain.Document, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Document
	for _, doc := range f.docs {
		if domain.Matches(doc, filter) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func fakeSchemaTable() []domain.Document {
	return []domain.Document{
		{"schema_group": "test", "schema_name": "fake.schema", "version": "1.0.0", "schema": map[string]any{"result": "NOPE"}},
		{"schema_group": "test", "schema_name": "fake.schema", "version": "1.1.0", "schema": map[string]any{"result": "NOPE"}},
		{"schema_group": "test", "schema_name": "fake.schema", "version": "1.1.1", "schema": map[string]any{"result": "YUP"}},
		{"schema_group": "not_test", "schema_name": "fake.schema", "version": "1.1.2", "schema": map[string]any{"result": "NOPE"}},
	}
}

func TestFetchLatestVersion(t *testing.T) {
	coll := &fakeCollection{docs: fakeSchemaTable()}

	record, err := NewService().Fetch(context.Background(), "fake.schema", "test", coll)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if record.Version != "1.1.1" {
		t.Fatalf("expected version 1.1.1, got %s", record.Version)
	}
	if !domain.Equal(record.Schema, domain.Document{"result": "YUP"}) {
		t.Fatalf("expected YUP schema, got %v", record.Schema)
	}
	if coll.filter["schema_name"] != "fake.schema" || coll.filter["schema_group"] != "test" {
		t.Fatalf("unexpected filter: %v", coll.filter)
	}
}

func TestFetchLatestVersionOrdersSemantically(t *testing.T) {
	coll := &fakeCollection{docs: []domain.Document{
		{"schema_group": "g", "schema_name": "n", "version": "1.10.0", "schema": map[string]any{"v": 10}},
		{"schema_group": "g", "schema_name": "n", "version": "1.9.0", "schema": map[string]any{"v": 9}},
		{"schema_group": "g", "schema_name": "n", "version": "1.2.0", "schema": map[string]any{"v": 2}},
	}}

	record, err := NewService().Fetch(context.Background(), "n", "g", coll)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if record.Version != "1.10.0" {
		t.Fatalf("expected 1.10.0, got %s", record.Version)
	}
}

func TestFetchLatestVersionTieKeepsFirst(t *testing.T) {
	coll := &fakeCollection{docs: []domain.Document{
		{"schema_group": "g", "schema_name": "n", "version": "2.0.0", "schema": map[string]any{"pick": "first"}},
		{"schema_group": "g", "schema_name": "n", "version": "2.0.0", "schema": map[string]any{"pick": "second"}},
	}}

	record, err := NewService().Fetch(context.Background(), "n", "g", coll)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if record.Schema["pick"] != "first" {
		t.Fatalf("expected first record on tie, got %v", record.Schema)
	}
}

func TestFetchLatestVersionEmpty(t *testing.T) {
	record, err := NewService().Fetch(context.Background(), "fake.schema", "test", &fakeCollection{})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	expected := domain.DefaultRecord("fake.schema", "test")
	if record.Version != expected.Version || record.SchemaName != expected.SchemaName || record.SchemaGroup != expected.SchemaGroup {
		t.Fatalf("expected %+v, got %+v", expected, record)
	}
	if len(record.Schema) != 0 || record.Schema == nil {
		t.Fatalf("expected empty schema, got %v", record.Schema)
	}
}

func TestFetchLatestVersionOtherGroupOnly(t *testing.T) {
	coll := &fakeCollection{docs: fakeSchemaTable()}

	record, err := NewService().Fetch(context.Background(), "fake.schema", "not_test", coll)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if record.Version != "1.1.2" {
		t.Fatalf("expected 1.1.2, got %s", record.Version)
	}
}

func TestFetchPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	_, err := NewService().Fetch(context.Background(), "n", "g", &fakeCollection{err: storeErr})
	if err != storeErr {
		t.Fatalf("expected store error unchanged, got %v", err)
	}
}

func TestFetchRejectsMalformedVersion(t *testing.T) {
	coll := &fakeCollection{docs: []domain.Document{
		{"schema_group": "g", "schema_name": "n", "version": "latest", "schema": map[string]any{}},
	}}
	_, err := NewService().Fetch(context.Background(), "n", "g", coll)
	if !errors.Is(err, domain.ErrInvalidVersion) {
		t.Fatalf("expected ErrInvalidVersion, got %v", err)
	}
}

func TestFetchMatchesBlankIdentityExactly(t *testing.T) {
	coll := &fakeCollection{docs: append(fakeSchemaTable(),
		domain.Document{"schema_group": "test", "schema_name": "", "version": "2.0.0", "schema": map[string]any{"result": "BLANK"}},
	)}

	record, err := NewService().Fetch(context.Background(), "", "test", coll)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if record.Version != "2.0.0" || record.Schema["result"] != "BLANK" {
		t.Fatalf("expected the blank-named record, got %+v", record)
	}

	record, err = NewService().Fetch(context.Background(), "fake.schema", "", coll)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !domain.Equal(map[string]any(record.Schema), map[string]any{}) || record.Version != domain.DefaultVersion {
		t.Fatalf("expected default record, got %+v", record)
	}
}
