package reconcile

// Diff classifies the remote records against snapshot in a single pass over
// records, in input order. It has no side effects.
//
// A remote key present in the snapshot reconciles its local record: the
// record leaves the deletion set whether or not updates are permitted, and an
// update action is planned only when req.Operations allows it. A key absent
// from the snapshot plans an insert when allowed. Local records left
// unmatched after the pass form Plan.Residual; delete actions for them are
// planned only when deletions are allowed.
func Diff(records []Record, snapshot *Snapshot, req Request) *Plan {
	ops := req.operations()
	plan := &Plan{
		Actions:  make([]Action, 0, len(records)),
		Residual: []LocalID{},
		Skipped:  []int{},
	}
	plan.Summary.Remote = len(records)

	reconciled := make(map[Key]struct{}, snapshot.Len())

	for entry := range ScanRemote(records, req.RemoteKey, req.Key) {
		if entry.Skipped {
			plan.Skipped = append(plan.Skipped, entry.Index)
			plan.Summary.Skipped++
			continue
		}

		if id, ok := snapshot.Lookup(entry.Key); ok {
			reconciled[entry.Key] = struct{}{}
			if !ops.Has(OperationUpdate) {
				plan.Summary.Suppressed++
				continue
			}
			plan.Actions = append(plan.Actions, Action{
				Type:    ActionUpdate,
				Index:   entry.Index,
				Key:     entry.Key,
				LocalID: id,
				Record:  entry.Record,
			})
			plan.Summary.Updated++
			continue
		}

		if !ops.Has(OperationInsert) {
			plan.Summary.Unmatched++
			continue
		}
		plan.Actions = append(plan.Actions, Action{
			Type:   ActionInsert,
			Index:  entry.Index,
			Key:    entry.Key,
			Record: entry.Record,
		})
		plan.Summary.Inserted++
	}

	for _, local := range snapshot.Entries() {
		if _, ok := reconciled[local.Key]; ok {
			continue
		}
		plan.Residual = append(plan.Residual, local.ID)
		if ops.Has(OperationDelete) {
			plan.Actions = append(plan.Actions, Action{
				Type:    ActionDelete,
				Index:   -1,
				Key:     local.Key,
				LocalID: local.ID,
			})
			plan.Summary.Deleted++
		}
	}
	plan.Summary.Residual = len(plan.Residual)

	return plan
}

// Deletions returns the identifiers of the planned delete actions.
func (p *Plan) Deletions() []LocalID {
	var ids []LocalID
	for _, action := range p.Actions {
		if action.Type == ActionDelete {
			ids = append(ids, action.LocalID)
		}
	}
	return ids
}
