package dbcontext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

// Manager hands out store handles whose lifetime is bound to a single call.
type Manager struct {
	opener Opener
	logger *slog.Logger
}

func NewManager(opener Opener, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{opener: opener, logger: logger}
}

// Do opens a handle, runs fn with it and closes the handle on every exit path,
// including a panic in fn, which is re-raised after the close.
func (m *Manager) Do(ctx context.Context, fn func(Handle) error) (err error) {
	if m == nil || m.opener == nil {
		return ErrOpenerRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	handle, err := m.opener.Open(ctx)
	if err != nil {
		return err
	}
	m.logger.Debug("store handle opened")

	defer func() {
		closeErr := handle.Close()
		if closeErr != nil {
			m.logger.Warn("close store handle", slog.Any("error", closeErr))
			err = errors.Join(err, fmt.Errorf("close store handle: %w", closeErr))
		} else {
			m.logger.Debug("store handle closed")
		}
	}()

	return fn(handle)
}

// WithCollection runs fn against one named collection of a scoped handle.
func (m *Manager) WithCollection(ctx context.Context, name string, fn func(Collection) error) error {
	if !domain.IsValidCollectionName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollectionName, name)
	}
	return m.Do(ctx, func(handle Handle) error {
		coll, err := handle.Collection(name)
		if err != nil {
			return err
		}
		return fn(coll)
	})
}

// FindOne returns the first document matching filter.
func FindOne(ctx context.Context, coll Collection, filter domain.Document) (domain.Document, bool, error) {
	docs, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	if len(docs) == 0 {
		return nil, false, nil
	}
	return docs[0], true, nil
}
