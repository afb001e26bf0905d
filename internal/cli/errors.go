package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/osvaldoandrade/schemaver/internal/app/dbcontext"
	"github.com/osvaldoandrade/schemaver/internal/app/publish"
	"github.com/osvaldoandrade/schemaver/internal/config"
	"github.com/osvaldoandrade/schemaver/internal/domain"
	"github.com/osvaldoandrade/schemaver/internal/infra/filesystem"
	"github.com/osvaldoandrade/schemaver/internal/platform"
)

type ErrorKind string

const (
	KindInternal      ErrorKind = "internal"
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindIntegrity     ErrorKind = "integrity"
	KindUnhandledDiff ErrorKind = "unhandled_diff"
)

const (
	ExitInternal      = 1
	ExitInvalid       = 2
	ExitNotFound      = 3
	ExitIntegrity     = 4
	ExitUnhandledDiff = 5
)

var ErrDocumentNotFound = errors.New("no matching document")

type ExitError struct {
	Code    int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e ExitError) Error() string {
	return errorMessage(e)
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func NormalizeError(err error) ExitError {
	if err == nil {
		return ExitError{Code: 0}
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == 0 {
			exitErr.Code = ExitInternal
		}
		return exitErr
	}

	switch {
	case errors.Is(err, domain.ErrUnhandledDiff):
		return ExitError{Code: ExitUnhandledDiff, Kind: KindUnhandledDiff, Err: err}
	case errors.Is(err, ErrDocumentNotFound):
		return ExitError{Code: ExitNotFound, Kind: KindNotFound, Err: err}
	case errors.Is(err, domain.ErrSchemaNameRequired),
		errors.Is(err, domain.ErrSchemaGroupRequired),
		errors.Is(err, domain.ErrInvalidVersion),
		errors.Is(err, domain.ErrMalformedRecord),
		errors.Is(err, dbcontext.ErrInvalidCollectionName),
		errors.Is(err, publish.ErrSchemaRequired),
		errors.Is(err, publish.ErrInvalidSchema),
		errors.Is(err, filesystem.ErrDocumentNotObject),
		errors.Is(err, filesystem.ErrUnsupportedFormat),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, platform.ErrInvalidLogOption):
		return ExitError{Code: ExitInvalid, Kind: KindValidation, Err: err}
	default:
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return NormalizeError(err).Code
}

func writeCLIError(w io.Writer, exitErr ExitError, asJSON bool) error {
	if exitErr.Code == 0 {
		return nil
	}
	message := errorMessage(exitErr)
	if asJSON {
		payload := struct {
			Code    int    `json:"code"`
			Kind    string `json:"kind"`
			Message string `json:"message"`
		}{
			Code:    exitErr.Code,
			Kind:    string(exitErr.Kind),
			Message: message,
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	ui := newRenderer(w, false)
	prefix := "Error"
	if exitErr.Kind != "" {
		prefix = fmt.Sprintf("Error (%s)", exitErr.Kind)
	}
	prefix = ui.err(prefix)
	_, err := fmt.Fprintf(w, "%s: %s\n", prefix, message)
	return err
}

func errorMessage(exitErr ExitError) string {
	if exitErr.Message != "" {
		return exitErr.Message
	}
	if exitErr.Err != nil {
		return exitErr.Err.Error()
	}
	return "unknown error"
}
