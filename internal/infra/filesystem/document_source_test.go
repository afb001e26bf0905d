package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

func TestReadDocumentJSONAndYAMLAgree(t *testing.T) {
	source := DocumentSource{}
	fromJSON, err := source.ReadDocument(context.Background(), filepath.Join("testdata", "base_schema.json"))
	if err != nil {
		t.Fatalf("ReadDocument json returned error: %v", err)
	}
	fromYAML, err := source.ReadDocument(context.Background(), filepath.Join("testdata", "base_schema.yaml"))
	if err != nil {
		t.Fatalf("ReadDocument yaml returned error: %v", err)
	}

	expected := domain.Document{"a": 1, "b": map[string]any{"c": 2}}
	if !domain.Equal(fromJSON, expected) {
		t.Fatalf("expected %v, got %v", expected, fromJSON)
	}
	if !domain.Equal(fromYAML, expected) {
		t.Fatalf("expected %v, got %v", expected, fromYAML)
	}
}

func TestReadDocumentRejectsNonObject(t *testing.T) {
	_, err := DocumentSource{}.ReadDocument(context.Background(), filepath.Join("testdata", "unhandled_diff.json"))
	if !errors.Is(err, ErrDocumentNotObject) {
		t.Fatalf("expected ErrDocumentNotObject, got %v", err)
	}
}

func TestReadDocumentsArray(t *testing.T) {
	docs, err := DocumentSource{}.ReadDocuments(context.Background(), filepath.Join("testdata", "fake_schema_table.json"))
	if err != nil {
		t.Fatalf("ReadDocuments returned error: %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("expected 4 documents, got %d", len(docs))
	}
	if docs[2]["version"] != "1.1.1" {
		t.Fatalf("unexpected third document: %v", docs[2])
	}
}

func TestReadDocumentsSingleObject(t *testing.T) {
	docs, err := DocumentSource{}.ReadDocuments(context.Background(), filepath.Join("testdata", "base_schema.json"))
	if err != nil {
		t.Fatalf("ReadDocuments returned error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
}

func TestReadDocumentUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.toml")
	if err := os.WriteFile(path, []byte("a = 1"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := DocumentSource{}.ReadDocument(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := DocumentSource{}.ReadDocument(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
