package diff

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

func baseSchema() domain.Document {
	return domain.Document{
		"a": 1,
		"b": map[string]any{"c": 2},
	}
}

func TestCompareSameDocument(t *testing.T) {
	docs := []domain.Document{
		baseSchema(),
		{"list": []any{1, "two", map[string]any{"three": true}}, "nothing": nil},
		{"set": map[string]struct{}{"x": {}}},
		{"a": 1, "x": math.NaN(), "nested": map[string]any{"y": math.NaN()}},
		{"inf": math.Inf(1), "big": uint64(math.MaxUint64)},
	}
	for _, doc := range docs {
		got, err := Compare(doc, doc)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", doc, err)
		}
		if got != domain.UpdateNone {
			t.Fatalf("expected no_update for %v, got %s", doc, got)
		}
	}
}

func TestCompareFirstRun(t *testing.T) {
	tests := []domain.Document{
		baseSchema(),
		{},
		nil,
		{"set": map[int]bool{1: true}},
	}
	for _, candidate := range tests {
		got, err := Compare(domain.Document{}, candidate)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", candidate, err)
		}
		if got != domain.UpdateFirstRun {
			t.Fatalf("expected first_run for %v, got %s", candidate, got)
		}
	}

	got, err := Compare(nil, baseSchema())
	if err != nil || got != domain.UpdateFirstRun {
		t.Fatalf("expected first_run for nil baseline, got %s (%v)", got, err)
	}
}

func TestCompareScenarios(t *testing.T) {
	tests := []struct {
		name      string
		candidate domain.Document
		want      domain.UpdateSeverity
	}{
		{
			name:      "minor change",
			candidate: domain.Document{"a": 1, "b": map[string]any{"c": 2, "d": 3}},
			want:      domain.UpdateMinor,
		},
		{
			name:      "major removed",
			candidate: domain.Document{"a": 1},
			want:      domain.UpdateMajor,
		},
		{
			name:      "major values changed",
			candidate: domain.Document{"a": 1, "b": map[string]any{"c": 999}},
			want:      domain.UpdateMajor,
		},
		{
			name:      "top-level key added",
			candidate: domain.Document{"a": 1, "b": map[string]any{"c": 2}, "e": "new"},
			want:      domain.UpdateMinor,
		},
		{
			name:      "added and removed",
			candidate: domain.Document{"a": 1, "b": map[string]any{"d": 3}},
			want:      domain.UpdateMajor,
		},
		{
			name:      "all keys removed",
			candidate: domain.Document{},
			want:      domain.UpdateMajor,
		},
		{
			name:      "scalar type changed",
			candidate: domain.Document{"a": "1", "b": map[string]any{"c": 2}},
			want:      domain.UpdateMajor,
		},
		{
			name:      "mapping replaced by scalar",
			candidate: domain.Document{"a": 1, "b": "flat"},
			want:      domain.UpdateMajor,
		},
		{
			name:      "numeric types do not matter",
			candidate: domain.Document{"a": 1.0, "b": map[string]any{"c": int64(2)}},
			want:      domain.UpdateNone,
		},
	}

	for _, tt := range tests {
		got, err := Compare(baseSchema(), tt.candidate)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestCompareExactNumbers(t *testing.T) {
	tests := []struct {
		name   string
		before domain.Document
		after  domain.Document
		want   domain.UpdateSeverity
	}{
		{
			name:   "large int changed",
			before: domain.Document{"id": int64(1<<53 + 1)},
			after:  domain.Document{"id": int64(1 << 53)},
			want:   domain.UpdateMajor,
		},
		{
			name:   "large uint changed",
			before: domain.Document{"id": uint64(math.MaxUint64)},
			after:  domain.Document{"id": uint64(math.MaxUint64 - 1)},
			want:   domain.UpdateMajor,
		},
		{
			name:   "large json number changed",
			before: domain.Document{"id": json.Number("9007199254740993")},
			after:  domain.Document{"id": int64(1 << 53)},
			want:   domain.UpdateMajor,
		},
		{
			name:   "large int against equal json number",
			before: domain.Document{"id": int64(1<<53 + 1)},
			after:  domain.Document{"id": json.Number("9007199254740993")},
			want:   domain.UpdateNone,
		},
		{
			name:   "integral float against int",
			before: domain.Document{"id": 3},
			after:  domain.Document{"id": 3.0},
			want:   domain.UpdateNone,
		},
		{
			name:   "NaN replaced by number",
			before: domain.Document{"id": math.NaN()},
			after:  domain.Document{"id": 1.5},
			want:   domain.UpdateMajor,
		},
	}

	for _, tt := range tests {
		got, err := Compare(tt.before, tt.after)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestCompareSequences(t *testing.T) {
	base := domain.Document{"fields": []any{"id", "name"}}

	tests := []struct {
		name      string
		candidate domain.Document
		want      domain.UpdateSeverity
	}{
		{name: "element appended", candidate: domain.Document{"fields": []any{"id", "name", "email"}}, want: domain.UpdateMinor},
		{name: "element dropped", candidate: domain.Document{"fields": []any{"id"}}, want: domain.UpdateMajor},
		{name: "element changed", candidate: domain.Document{"fields": []any{"id", "title"}}, want: domain.UpdateMajor},
		{name: "reordered", candidate: domain.Document{"fields": []any{"name", "id"}}, want: domain.UpdateMajor},
		{name: "typed slice", candidate: domain.Document{"fields": []string{"id", "name"}}, want: domain.UpdateNone},
	}

	for _, tt := range tests {
		got, err := Compare(base, tt.candidate)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestCompareNestedInsideSequence(t *testing.T) {
	base := domain.Document{"items": []any{map[string]any{"type": "string"}}}
	candidate := domain.Document{"items": []any{map[string]any{"type": "string", "format": "email"}}}

	got, err := Compare(base, candidate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.UpdateMinor {
		t.Fatalf("expected minor, got %s", got)
	}
}

func TestCompareUnhandledDiff(t *testing.T) {
	tests := []struct {
		name      string
		candidate domain.Document
		wantPath  string
	}{
		{
			name:      "set of scalars replaces mapping",
			candidate: domain.Document{"a": 1, "b": map[string]struct{}{"c": {}, "d": {}}},
			wantPath:  "b.c",
		},
		{
			name:      "non string keys",
			candidate: domain.Document{"a": 1, "b": map[int]bool{1: true}},
			wantPath:  "b",
		},
		{
			name:      "mapping against sequence",
			candidate: domain.Document{"a": 1, "b": []any{2}},
			wantPath:  "b",
		},
		{
			name:      "unsupported value added",
			candidate: domain.Document{"a": 1, "b": map[string]any{"c": 2}, "f": struct{ X int }{X: 1}},
			wantPath:  "f",
		},
	}

	for _, tt := range tests {
		got, err := Compare(baseSchema(), tt.candidate)
		if !errors.Is(err, domain.ErrUnhandledDiff) {
			t.Fatalf("%s: expected ErrUnhandledDiff, got %s (%v)", tt.name, got, err)
		}
		var unhandled *domain.UnhandledDiffError
		if !errors.As(err, &unhandled) {
			t.Fatalf("%s: expected *UnhandledDiffError, got %T", tt.name, err)
		}
		if unhandled.Path != tt.wantPath {
			t.Fatalf("%s: expected path %s, got %s", tt.name, tt.wantPath, unhandled.Path)
		}
	}
}

func TestDiffReportsChanges(t *testing.T) {
	candidate := domain.Document{"b": map[string]any{"c": 999, "d": 3}}

	report, err := Diff(baseSchema(), candidate)
	if err != nil {
		t.Fatalf("Diff returned error: %v", err)
	}
	if report.Severity != domain.UpdateMajor {
		t.Fatalf("expected major, got %s", report.Severity)
	}

	expected := []struct {
		path string
		kind ChangeKind
		sev  domain.UpdateSeverity
	}{
		{path: "a", kind: KindRemoved, sev: domain.UpdateMajor},
		{path: "b.c", kind: KindChanged, sev: domain.UpdateMajor},
		{path: "b.d", kind: KindAdded, sev: domain.UpdateMinor},
	}
	if len(report.Changes) != len(expected) {
		t.Fatalf("expected %d changes, got %+v", len(expected), report.Changes)
	}
	for i, want := range expected {
		got := report.Changes[i]
		if got.Path != want.path || got.Kind != want.kind || got.Severity != want.sev {
			t.Fatalf("change %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestDiffDoesNotMutateInputs(t *testing.T) {
	before := baseSchema()
	after := domain.Document{"a": 1, "b": map[string]any{"c": 2, "d": 3}}

	if _, err := Diff(before, after); err != nil {
		t.Fatalf("Diff returned error: %v", err)
	}
	if !domain.Equal(before, baseSchema()) {
		t.Fatalf("before mutated: %v", before)
	}
	if !domain.Equal(after, domain.Document{"a": 1, "b": map[string]any{"c": 2, "d": 3}}) {
		t.Fatalf("after mutated: %v", after)
	}
}
