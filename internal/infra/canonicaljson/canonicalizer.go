package canonicaljson

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

// Canonicalizer produces RFC 8785 canonical JSON, so equal documents always
// serialize to the same bytes.
type Canonicalizer struct{}

func (Canonicalizer) Canonicalize(ctx context.Context, input []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value := jsontext.Value(append([]byte(nil), input...))
	if err := value.Canonicalize(); err != nil {
		return nil, fmt.Errorf("canonicalize json: %w", err)
	}

	return []byte(value), nil
}

func (c Canonicalizer) CanonicalizeDocument(ctx context.Context, doc domain.Document) ([]byte, error) {
	if doc == nil {
		doc = domain.Document{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return c.Canonicalize(ctx, payload)
}
