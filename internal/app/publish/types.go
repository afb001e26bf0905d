package publish

import (
	"time"

	"github.com/osvaldoandrade/schemaver/internal/app/diff"
	"github.com/osvaldoandrade/schemaver/internal/domain"
)

type Request struct {
	Name   string
	Group  string
	Schema domain.Document
	DryRun bool
}

type Result struct {
	Name            string
	Group           string
	Severity        domain.UpdateSeverity
	PreviousVersion string
	Version         string
	Changes         []diff.Change
	MergePatch      []byte
	Fingerprint     string
	PublishedAt     time.Time
	Stored          bool
	ID              string
}
