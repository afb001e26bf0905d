package dbcontext

import (
	"context"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

// Opener opens a scoped handle to a document store.
type Opener interface {
	Open(ctx context.Context) (Handle, error)
}

type Handle interface {
	Collection(name string) (Collection, error)
	Close() error
}

// Collection supports inserting documents and finding them by exact-match filter.
type Collection interface {
	Insert(ctx context.Context, docs ...domain.Document) ([]string, error)
	Find(ctx context.Context, filter domain.Document) ([]domain.Document, error)
}
