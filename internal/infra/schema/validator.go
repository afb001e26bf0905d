package schema

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/osvaldoandrade/schemaver/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchemaValidator accepts a candidate schema only when it compiles as a
// JSON Schema document.
type JSONSchemaValidator struct{}

func (JSONSchemaValidator) Validate(ctx context.Context, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	if _, err := compiler.Compile("schema.json"); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	return nil
}
