package diff

import (
	"sort"
	"strconv"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

// ChangeKind tags a node of the diff walk.
type ChangeKind string

const (
	KindEqual   ChangeKind = "equal"
	KindAdded   ChangeKind = "added"
	KindRemoved ChangeKind = "removed"
	KindChanged ChangeKind = "changed"
	KindNested  ChangeKind = "nested"
)

// Change is one leaf discrepancy between two schema documents.
type Change struct {
	Path     string
	Kind     ChangeKind
	Severity domain.UpdateSeverity
	Old      any
	New      any
}

// Report is the outcome of comparing a stored schema with a candidate.
type Report struct {
	Severity domain.UpdateSeverity
	Changes  []Change
}

type node struct {
	path     string
	kind     ChangeKind
	severity domain.UpdateSeverity
	before   any
	after    any
	children []node
}

// Compare classifies the update needed to go from before to after.
func Compare(before, after domain.Document) (domain.UpdateSeverity, error) {
	report, err := Diff(before, after)
	if err != nil {
		return "", err
	}
	return report.Severity, nil
}

// Diff walks both documents and reports every discrepancy together with the
// overall severity. An empty before document is a first run and is not walked.
func Diff(before, after domain.Document) (Report, error) {
	if len(before) == 0 {
		return Report{Severity: domain.UpdateFirstRun}, nil
	}
	if domain.Equal(before, after) {
		return Report{Severity: domain.UpdateNone}, nil
	}

	root, err := walk("", map[string]any(before), map[string]any(after))
	if err != nil {
		return Report{}, err
	}

	var changes []Change
	collect(root, &changes)
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return Report{Severity: root.severity, Changes: changes}, nil
}

// walk classifies a pair of values present on both sides.
func walk(path string, before, after any) (node, error) {
	oldKind := domain.KindOf(before)
	newKind := domain.KindOf(after)
	if oldKind == domain.KindUnsupported || newKind == domain.KindUnsupported {
		if domain.Equal(before, after) {
			return node{path: path, kind: KindEqual, severity: domain.UpdateNone}, nil
		}
		return node{}, &domain.UnhandledDiffError{Path: path, OldKind: oldKind, NewKind: newKind}
	}

	switch {
	case oldKind == domain.KindMapping && newKind == domain.KindMapping:
		return walkMapping(path, before, after)
	case oldKind == domain.KindSequence && newKind == domain.KindSequence:
		return walkSequence(path, before, after)
	case oldKind.IsContainer() && newKind.IsContainer():
		return node{}, &domain.UnhandledDiffError{Path: path, OldKind: oldKind, NewKind: newKind}
	}

	if err := checkSupported(path, before); err != nil {
		return node{}, err
	}
	if err := checkSupported(path, after); err != nil {
		return node{}, err
	}
	if domain.Equal(before, after) {
		return node{path: path, kind: KindEqual, severity: domain.UpdateNone}, nil
	}
	return node{path: path, kind: KindChanged, severity: domain.UpdateMajor, before: before, after: after}, nil
}

func walkMapping(path string, before, after any) (node, error) {
	oldEntries, _ := domain.AsMapping(before)
	newEntries, _ := domain.AsMapping(after)

	keys := make([]string, 0, len(oldEntries)+len(newEntries))
	for key := range oldEntries {
		keys = append(keys, key)
	}
	for key := range newEntries {
		if _, ok := oldEntries[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	parent := node{path: path, kind: KindNested, severity: domain.UpdateNone}
	for _, key := range keys {
		child, err := classify(joinKey(path, key), oldEntries, newEntries, key)
		if err != nil {
			return node{}, err
		}
		parent.add(child)
	}
	return parent, nil
}

func classify(path string, oldEntries, newEntries map[string]any, key string) (node, error) {
	oldValue, inOld := oldEntries[key]
	newValue, inNew := newEntries[key]
	switch {
	case inOld && !inNew:
		if err := checkSupported(path, oldValue); err != nil {
			return node{}, err
		}
		return node{path: path, kind: KindRemoved, severity: domain.UpdateMajor, before: oldValue}, nil
	case !inOld && inNew:
		if err := checkSupported(path, newValue); err != nil {
			return node{}, err
		}
		return node{path: path, kind: KindAdded, severity: domain.UpdateMinor, after: newValue}, nil
	default:
		return walk(path, oldValue, newValue)
	}
}

func walkSequence(path string, before, after any) (node, error) {
	oldItems, _ := domain.AsSequence(before)
	newItems, _ := domain.AsSequence(after)

	parent := node{path: path, kind: KindNested, severity: domain.UpdateNone}
	for i := 0; i < len(oldItems) || i < len(newItems); i++ {
		itemPath := joinIndex(path, i)
		var child node
		var err error
		switch {
		case i >= len(newItems):
			if err := checkSupported(itemPath, oldItems[i]); err != nil {
				return node{}, err
			}
			child = node{path: itemPath, kind: KindRemoved, severity: domain.UpdateMajor, before: oldItems[i]}
		case i >= len(oldItems):
			if err := checkSupported(itemPath, newItems[i]); err != nil {
				return node{}, err
			}
			child = node{path: itemPath, kind: KindAdded, severity: domain.UpdateMinor, after: newItems[i]}
		default:
			child, err = walk(itemPath, oldItems[i], newItems[i])
			if err != nil {
				return node{}, err
			}
		}
		parent.add(child)
	}
	return parent, nil
}

func (n *node) add(child node) {
	if child.kind == KindEqual {
		return
	}
	if child.kind == KindNested && len(child.children) == 0 {
		return
	}
	n.children = append(n.children, child)
	n.severity = domain.MaxSeverity(n.severity, child.severity)
}

// checkSupported rejects values that contain kinds the walk cannot classify,
// so an added or removed subtree is held to the same rules as a compared one.
func checkSupported(path string, value any) error {
	kind := domain.KindOf(value)
	switch kind {
	case domain.KindUnsupported:
		return &domain.UnhandledDiffError{Path: path, OldKind: kind, NewKind: kind}
	case domain.KindMapping:
		entries, _ := domain.AsMapping(value)
		for key, item := range entries {
			if err := checkSupported(joinKey(path, key), item); err != nil {
				return err
			}
		}
	case domain.KindSequence:
		items, _ := domain.AsSequence(value)
		for i, item := range items {
			if err := checkSupported(joinIndex(path, i), item); err != nil {
				return err
			}
		}
	}
	return nil
}

func collect(n node, out *[]Change) {
	if n.kind == KindNested {
		for _, child := range n.children {
			collect(child, out)
		}
		return
	}
	*out = append(*out, Change{
		Path:     n.path,
		Kind:     n.kind,
		Severity: n.severity,
		Old:      n.before,
		New:      n.after,
	})
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func joinIndex(path string, index int) string {
	return path + "[" + strconv.Itoa(index) + "]"
}
