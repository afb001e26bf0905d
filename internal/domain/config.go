package domain

import (
	"fmt"
	"strings"
)

// Backend names the document store behind a database context.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

const DefaultBackend = BackendPostgres

func (backend Backend) IsValid() bool {
	return backend == BackendPostgres || backend == BackendSQLite
}

func ParseBackend(value string) (Backend, error) {
	parsed := Backend(strings.ToLower(strings.TrimSpace(value)))
	if parsed == "" {
		return "", fmt.Errorf("database backend is required")
	}
	if !parsed.IsValid() {
		return "", fmt.Errorf("invalid database backend: %s", value)
	}
	return parsed, nil
}

func NormalizeBackend(backend Backend) Backend {
	if backend.IsValid() {
		return backend
	}
	return DefaultBackend
}
