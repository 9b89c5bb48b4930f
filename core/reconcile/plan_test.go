package reconcile

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func snapshotOf(keys ...any) *Snapshot {
	records := make([]LocalRecord, len(keys))
	for i, key := range keys {
		records[i] = LocalRecord{ID: LocalID(fmt.Sprintf("l%d", i)), Value: key}
	}
	return NewSnapshot(records, KeySpec{})
}

func TestDiff_Actions(t *testing.T) {
	plan := Diff(users(0, 6, 1), snapshotOf(0, 1, 2), userRequest())

	assert.Equal(t, []Action{
		{Type: ActionUpdate, Index: 0, Key: IntKey(0), LocalID: "l0", Record: users(0)[0]},
		{Type: ActionInsert, Index: 1, Key: IntKey(6), Record: users(6)[0]},
		{Type: ActionUpdate, Index: 2, Key: IntKey(1), LocalID: "l1", Record: users(1)[0]},
		{Type: ActionDelete, Index: -1, Key: IntKey(2), LocalID: "l2"},
	}, plan.Actions)
	assert.Equal(t, []LocalID{"l2"}, plan.Residual)
	assert.Equal(t, []LocalID{"l2"}, plan.Deletions())
}

func TestDiff_FilteredOperations(t *testing.T) {
	tests := []struct {
		name string
		ops  Operation
		want Summary
	}{
		{"All", OperationAll, Summary{Remote: 3, Inserted: 1, Updated: 2, Deleted: 1, Residual: 1}},
		{"Insert", OperationInsert, Summary{Remote: 3, Inserted: 1, Residual: 1, Suppressed: 2}},
		{"Update", OperationUpdate, Summary{Remote: 3, Updated: 2, Residual: 1, Unmatched: 1}},
		{"Delete", OperationDelete, Summary{Remote: 3, Deleted: 1, Residual: 1, Unmatched: 1, Suppressed: 2}},
		{"Insert Update", OperationInsert | OperationUpdate, Summary{Remote: 3, Inserted: 1, Updated: 2, Residual: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := userRequest()
			req.Operations = tt.ops
			plan := Diff(users(0, 6, 1), snapshotOf(0, 1, 2), req)

			assert.Equal(t, tt.want, plan.Summary)
			// The deletion set never depends on the filter.
			assert.Equal(t, []LocalID{"l2"}, plan.Residual)
		})
	}
}

func TestDiff_DuplicateRemoteKeys(t *testing.T) {
	plan := Diff(users(1, 1, 9, 9), snapshotOf(1), userRequest())

	assert.Equal(t, 2, plan.Summary.Updated)
	assert.Equal(t, 2, plan.Summary.Inserted)
	assert.Empty(t, plan.Residual)
}

func TestDiff_NilSnapshot(t *testing.T) {
	plan := Diff(users(1, 2), nil, userRequest())
	assert.Equal(t, 2, plan.Summary.Inserted)
	assert.Empty(t, plan.Residual)
}

// TestDiff_CountInvariants checks the counting identities over random inputs:
// every remote record is inserted, updated or skipped, and every surviving
// local record is either reconciled or part of the residual.
func TestDiff_CountInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 200; round++ {
		var localKeys, remoteKeys []any
		for i := rng.IntN(20); i > 0; i-- {
			localKeys = append(localKeys, rng.IntN(15))
		}
		for i := rng.IntN(20); i > 0; i-- {
			remoteKeys = append(remoteKeys, rng.IntN(15))
		}

		snapshot := snapshotOf(localKeys...)
		records := users(remoteKeys...)
		if len(records) > 0 && rng.IntN(3) == 0 {
			delete(records[0], "id")
		}
		plan := Diff(records, snapshot, userRequest())
		s := plan.Summary

		assert.Equal(t, len(records), s.Inserted+s.Updated+s.Skipped, "round %d", round)
		assert.Equal(t, s.Residual, s.Deleted, "round %d", round)

		reconciled := make(map[Key]struct{})
		for _, a := range plan.Actions {
			if a.Type == ActionUpdate {
				reconciled[a.Key] = struct{}{}
			}
		}
		assert.Equal(t, snapshot.Len(), len(reconciled)+s.Residual, "round %d", round)
	}
}
