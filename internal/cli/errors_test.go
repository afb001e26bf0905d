package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/osvaldoandrade/schemaver/internal/app/dbcontext"
	"github.com/osvaldoandrade/schemaver/internal/app/publish"
	"github.com/osvaldoandrade/schemaver/internal/config"
	"github.com/osvaldoandrade/schemaver/internal/domain"
	"github.com/osvaldoandrade/schemaver/internal/infra/filesystem"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantKind ErrorKind
	}{
		{err: &domain.UnhandledDiffError{Path: "b", OldKind: domain.KindMapping, NewKind: domain.KindSequence}, wantCode: ExitUnhandledDiff, wantKind: KindUnhandledDiff},
		{err: fmt.Errorf("compare g/n: %w", domain.ErrUnhandledDiff), wantCode: ExitUnhandledDiff, wantKind: KindUnhandledDiff},
		{err: ErrDocumentNotFound, wantCode: ExitNotFound, wantKind: KindNotFound},
		{err: domain.ErrSchemaNameRequired, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: domain.ErrInvalidVersion, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: dbcontext.ErrInvalidCollectionName, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: publish.ErrInvalidSchema, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: filesystem.ErrDocumentNotObject, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: config.ErrInvalidConfig, wantCode: ExitInvalid, wantKind: KindValidation},
		{err: errors.New("boom"), wantCode: ExitInternal, wantKind: KindInternal},
	}

	for _, tt := range tests {
		got := NormalizeError(tt.err)
		if got.Code != tt.wantCode {
			t.Fatalf("expected code %d, got %d for %v", tt.wantCode, got.Code, tt.err)
		}
		if got.Kind != tt.wantKind {
			t.Fatalf("expected kind %s, got %s for %v", tt.wantKind, got.Kind, tt.err)
		}
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatalf("expected ExitCode(nil) == 0")
	}

	custom := ExitError{Code: 9, Kind: KindInternal, Message: "custom"}
	if ExitCode(custom) != 9 {
		t.Fatalf("expected ExitCode(custom) == 9")
	}
}

func TestWriteCLIErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	exitErr := NormalizeError(&domain.UnhandledDiffError{Path: "b", OldKind: domain.KindMapping, NewKind: domain.KindSequence})
	if err := writeCLIError(&buf, exitErr, true); err != nil {
		t.Fatalf("writeCLIError: %v", err)
	}

	var payload struct {
		Code int    `json:"code"`
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != ExitUnhandledDiff || payload.Kind != string(KindUnhandledDiff) {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
