package reconcile

import (
	"context"

	"go.uber.org/zap"
)

// SnapshotRequest selects the local records a snapshot is built from.
type SnapshotRequest struct {
	Entity   string
	KeyField string
	Key      KeySpec
	Scope    Scope
	Logger   *zap.Logger
}

// SnapshotEntry is one surviving local record.
type SnapshotEntry struct {
	Key Key
	ID  LocalID
}

// Snapshot is the deduplicated key to identifier mapping of the local records
// in scope. No two entries share a key.
type Snapshot struct {
	index   map[Key]LocalID
	entries []SnapshotEntry

	// Duplicates lists local records deleted because an earlier record
	// already held their key.
	Duplicates []LocalID

	// Unresolvable counts local records whose key could not be normalized.
	// They are left out of the snapshot and never touched.
	Unresolvable int
}

// Lookup returns the surviving identifier for key.
func (s *Snapshot) Lookup(key Key) (LocalID, bool) {
	if s == nil {
		return "", false
	}
	id, ok := s.index[key]
	return id, ok
}

// Len returns the number of surviving local records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the surviving records in enumeration order.
func (s *Snapshot) Entries() []SnapshotEntry {
	if s == nil {
		return nil
	}
	return append([]SnapshotEntry(nil), s.entries...)
}

// NewSnapshot builds a snapshot from already enumerated records without
// touching any store. Colliding records are reported in Duplicates.
func NewSnapshot(records []LocalRecord, spec KeySpec) *Snapshot {
	snap := &Snapshot{index: make(map[Key]LocalID, len(records))}
	for _, rec := range records {
		key := Normalize(rec.Value, spec)
		if !key.Resolved() {
			snap.Unresolvable++
			continue
		}
		if _, seen := snap.index[key]; seen {
			snap.Duplicates = append(snap.Duplicates, rec.ID)
			continue
		}
		snap.index[key] = rec.ID
		snap.entries = append(snap.entries, SnapshotEntry{Key: key, ID: rec.ID})
	}
	return snap
}

// BuildSnapshot enumerates the local records of req.Entity within req.Scope
// and indexes them by normalized key. Records colliding with an earlier key
// are deleted from the store before the snapshot is returned, so a remote
// record can match at most one local record.
func BuildSnapshot(ctx context.Context, store LocalStore, req SnapshotRequest) (*Snapshot, error) {
	records, err := store.Enumerate(ctx, req.Entity, req.KeyField, req.Scope)
	if err != nil {
		return nil, storeError("enumerate", req.Entity, err)
	}

	snap := NewSnapshot(records, req.Key)

	log := req.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if snap.Unresolvable > 0 {
		log.Debug("Local records with unresolvable keys left out of snapshot",
			zap.String("entity", req.Entity),
			zap.Int("count", snap.Unresolvable),
		)
	}

	if len(snap.Duplicates) > 0 {
		if err := store.Delete(ctx, req.Entity, snap.Duplicates); err != nil {
			return nil, storeError("delete duplicates", req.Entity, err)
		}
		log.Info("Removed duplicate local records",
			zap.String("entity", req.Entity),
			zap.Int("count", len(snap.Duplicates)),
		)
	}

	return snap, nil
}
