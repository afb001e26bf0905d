package publish

import (
	"context"
	"time"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type Collection interface {
	Find(ctx context.Context, filter domain.Document) ([]domain.Document, error)
	Insert(ctx context.Context, docs ...domain.Document) ([]string, error)
}

type Validator interface {
	Validate(ctx context.Context, doc domain.Document) error
}

type Differ interface {
	MergePatch(ctx context.Context, before, after domain.Document) ([]byte, error)
}

type Fingerprinter interface {
	Fingerprint(ctx context.Context, doc domain.Document) (string, error)
}

type Clock interface {
	Now() time.Time
}
