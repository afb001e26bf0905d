package paths

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNormalizeDir(t *testing.T) {
	got, err := NormalizeDir(" fake-db ")
	if err != nil {
		t.Fatalf("NormalizeDir: %v", err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "fake-db" {
		t.Fatalf("expected absolute fake-db path, got %s", got)
	}

	if _, err := NormalizeDir("  "); !errors.Is(err, ErrDirRequired) {
		t.Fatalf("expected ErrDirRequired, got %v", err)
	}
}
