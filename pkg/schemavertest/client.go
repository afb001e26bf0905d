// Package schemavertest provides clients backed by a throwaway embedded store.
package schemavertest

import (
	"context"
	"testing"

	"github.com/osvaldoandrade/schemaver/pkg/schemaversdk"
)

// NewClient opens a test-mode client whose store lives in t.TempDir and is
// closed when the test ends.
func NewClient(t testing.TB) *schemaversdk.Client {
	t.Helper()
	cfg := schemaversdk.DefaultConfig()
	cfg.TestMode = true
	cfg.TestModeDir = t.TempDir()

	client, err := schemaversdk.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("schemavertest: open client: %v", err)
	}
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Errorf("schemavertest: close client: %v", err)
		}
	})
	return client
}

// Seed inserts docs into collection and fails the test on error.
func Seed(t testing.TB, client *schemaversdk.Client, collection string, docs ...schemaversdk.Document) []string {
	t.Helper()
	ids, err := client.Insert(context.Background(), collection, docs...)
	if err != nil {
		t.Fatalf("schemavertest: seed %s: %v", collection, err)
	}
	return ids
}
