package domain

import (
	"fmt"
	"strings"
)

// UpdateSeverity classifies how a candidate schema differs from the stored one.
type UpdateSeverity string

const (
	UpdateFirstRun UpdateSeverity = "first_run"
	UpdateNone     UpdateSeverity = "no_update"
	UpdateMinor    UpdateSeverity = "minor"
	UpdateMajor    UpdateSeverity = "major"
)

func (s UpdateSeverity) IsValid() bool {
	switch s {
	case UpdateFirstRun, UpdateNone, UpdateMinor, UpdateMajor:
		return true
	default:
		return false
	}
}

func (s UpdateSeverity) String() string {
	return string(s)
}

// rank orders no_update < minor < major. first_run sits outside the ordering.
func (s UpdateSeverity) rank() int {
	switch s {
	case UpdateMinor:
		return 1
	case UpdateMajor:
		return 2
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b UpdateSeverity) UpdateSeverity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

func ParseUpdateSeverity(value string) (UpdateSeverity, error) {
	parsed := UpdateSeverity(strings.ToLower(strings.TrimSpace(value)))
	if !parsed.IsValid() {
		return "", fmt.Errorf("invalid update severity: %s", value)
	}
	return parsed, nil
}
