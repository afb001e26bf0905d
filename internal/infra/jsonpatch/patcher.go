package jsonpatch

import (
	"context"
	"fmt"

	"github.com/evanphx/json-patch/v5"
	"github.com/go-json-experiment/json"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

// Differ describes the move between two schema versions as an RFC 7386
// merge patch.
type Differ struct{}

func (Differ) MergePatch(ctx context.Context, before, after domain.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	original, err := marshalDocument(before)
	if err != nil {
		return nil, err
	}
	modified, err := marshalDocument(after)
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, fmt.Errorf("create merge patch: %w", err)
	}
	return patch, nil
}

// ApplyMergePatch rebuilds a schema from its predecessor and a merge patch.
func (Differ) ApplyMergePatch(ctx context.Context, before domain.Document, patch []byte) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	original, err := marshalDocument(before)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("apply merge patch: %w", err)
	}

	var out domain.Document
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("decode merged document: %w", err)
	}
	return out, nil
}

func marshalDocument(doc domain.Document) ([]byte, error) {
	if doc == nil {
		doc = domain.Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
