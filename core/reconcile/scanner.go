package reconcile

import (
	"fmt"
	"iter"
	"strings"
)

// RemoteEntry is one remote record as seen by the scanner.
type RemoteEntry struct {
	// Index is the position in the input sequence.
	Index int

	// Record is the remote record itself.
	Record Record

	// Key is the normalized key. It is only meaningful when Skipped is false.
	Key Key

	// Skipped is true when the key path is missing or its value cannot be
	// normalized. Skipped records are neither inserted nor matched.
	Skipped bool
}

// ValidateRecords checks the structural shape of a remote sequence.
// It runs before any side effect so a malformed sequence is never partially
// processed.
func ValidateRecords(records []Record) error {
	for i, rec := range records {
		if rec == nil {
			return fmt.Errorf("%w: element %d is not an object", ErrMalformedRecord, i)
		}
	}
	return nil
}

// ScanRemote yields the remote records in input order with their resolved keys.
// An explicit null at keyPath yields NullKey; a missing path or a value of an
// unresolvable type yields a skipped entry.
func ScanRemote(records []Record, keyPath string, spec KeySpec) iter.Seq[RemoteEntry] {
	path := splitPath(keyPath)
	return func(yield func(RemoteEntry) bool) {
		for i, rec := range records {
			entry := RemoteEntry{Index: i, Record: rec}
			value, ok := lookup(rec, path)
			if ok {
				entry.Key = Normalize(value, spec)
			}
			entry.Skipped = !ok || !entry.Key.Resolved()
			if !yield(entry) {
				return
			}
		}
	}
}

// RemoteValue resolves a dotted key path inside a record. The boolean is false
// when the path does not exist, and true for an explicit null.
func RemoteValue(record Record, keyPath string) (any, bool) {
	return lookup(record, splitPath(keyPath))
}

func splitPath(keyPath string) []string {
	if keyPath == "" {
		return nil
	}
	return strings.Split(keyPath, ".")
}

func lookup(record Record, path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	// A literal key containing dots wins over path traversal.
	if len(path) > 1 {
		if v, ok := record[strings.Join(path, ".")]; ok {
			return v, true
		}
	}
	var current any = record
	for _, part := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
