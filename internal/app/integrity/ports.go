package integrity

import (
	"context"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type Collection interface {
	Find(ctx context.Context, filter domain.Document) ([]domain.Document, error)
}

type VerifyOptions struct {
	// Deep replays each schema history and checks every stored bump against its diff.
	Deep bool
}

type VerifyResult struct {
	Records int
	Schemas int
	Valid   int
	Issues  []Issue
}

type Issue struct {
	Schema  string
	Version string
	Code    string
	Message string
}
