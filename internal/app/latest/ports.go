package latest

import (
	"context"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

// Collection is the read side of a stored record collection.
type Collection interface {
	Find(ctx context.Context, filter domain.Document) ([]domain.Document, error)
}
