package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/goccy/go-yaml"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// DocumentSource loads already-serialized schema documents from disk.
type DocumentSource struct{}

func (DocumentSource) ReadDocument(ctx context.Context, path string) (domain.Document, error) {
	value, err := readValue(ctx, path)
	if err != nil {
		return nil, err
	}
	return asDocument(value, path)
}

// ReadDocuments loads either a single object or an array of objects.
func (DocumentSource) ReadDocuments(ctx context.Context, path string) ([]domain.Document, error) {
	value, err := readValue(ctx, path)
	if err != nil {
		return nil, err
	}

	items, ok := value.([]any)
	if !ok {
		doc, err := asDocument(value, path)
		if err != nil {
			return nil, err
		}
		return []domain.Document{doc}, nil
	}

	docs := make([]domain.Document, 0, len(items))
	for i, item := range items {
		doc, err := asDocument(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Decode parses data in the given format.
func Decode(data []byte, format Format) (any, error) {
	data = bytes.TrimSpace(data)
	var value any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return value, nil
}

func readValue(ctx context.Context, path string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Decode(data, format)
}

func asDocument(value any, label string) (domain.Document, error) {
	entries, ok := domain.AsMapping(value)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrDocumentNotObject, label, domain.KindOf(value))
	}
	return domain.Document(entries), nil
}
