package hash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type SHA256 struct{}

func (SHA256) SumHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type DocumentCanonicalizer interface {
	CanonicalizeDocument(ctx context.Context, doc domain.Document) ([]byte, error)
}

// Fingerprinter hashes the canonical form of a schema, so documents that are
// structurally equal share a fingerprint.
type Fingerprinter struct {
	Canonicalizer DocumentCanonicalizer
}

func (f Fingerprinter) Fingerprint(ctx context.Context, doc domain.Document) (string, error) {
	canonical, err := f.Canonicalizer.CanonicalizeDocument(ctx, doc)
	if err != nil {
		return "", err
	}
	return SHA256{}.SumHex(canonical), nil
}
