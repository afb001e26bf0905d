package domain

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const DefaultVersion = "1.0.0"

func ParseVersion(value string) (*semver.Version, error) {
	version, err := semver.StrictNewVersion(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, value, err)
	}
	return version, nil
}

// CompareVersions returns -1, 0 or 1 following semantic version precedence.
func CompareVersions(a, b string) (int, error) {
	left, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	right, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return left.Compare(right), nil
}

// NextVersion returns the version a schema should be stored under after a
// comparison against the record at current.
func NextVersion(current string, severity UpdateSeverity) (string, error) {
	if severity == UpdateFirstRun {
		return DefaultVersion, nil
	}

	version, err := ParseVersion(current)
	if err != nil {
		return "", err
	}

	switch severity {
	case UpdateNone:
		return version.String(), nil
	case UpdateMinor:
		next := version.IncMinor()
		return next.String(), nil
	case UpdateMajor:
		next := version.IncMajor()
		return next.String(), nil
	default:
		return "", fmt.Errorf("invalid update severity: %s", severity)
	}
}
