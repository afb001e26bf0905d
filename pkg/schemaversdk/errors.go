package schemaversdk

import (
	"errors"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

var (
	ErrUnhandledDiff   = domain.ErrUnhandledDiff
	ErrInvalidVersion  = domain.ErrInvalidVersion
	ErrMalformedRecord = domain.ErrMalformedRecord
	ErrClientClosed    = errors.New("schemaver-sdk: client is closed")
)

// UnhandledDiffError reports where two schemas stopped being comparable.
type UnhandledDiffError = domain.UnhandledDiffError
