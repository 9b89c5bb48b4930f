package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Reconcile diffs records against the local records of req.Entity and
// materializes the outcome.
//
// The call validates the whole remote sequence first, then builds the local
// snapshot (deleting key duplicates), invokes the insert and update callbacks
// in remote input order and finally deletes the unmatched local records when
// deletions are permitted. Deletions are only applied after the full pass.
// When store implements Transactor everything runs in one transaction, so any
// failure leaves the store as it was. Nothing is retried.
func Reconcile(ctx context.Context, store LocalStore, records []Record, req Request, callbacks Callbacks) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	var result *Result
	run := func(s LocalStore) error {
		var err error
		result, err = reconcile(ctx, s, records, req, callbacks)
		return err
	}

	if tx, ok := store.(Transactor); ok {
		if err := tx.Transaction(ctx, run); err != nil {
			return nil, err
		}
		return result, nil
	}
	if err := run(store); err != nil {
		return nil, err
	}
	return result, nil
}

func reconcile(ctx context.Context, store LocalStore, records []Record, req Request, callbacks Callbacks) (*Result, error) {
	log := req.logger().With(zap.String("entity", req.Entity))

	snapshot, err := BuildSnapshot(ctx, store, SnapshotRequest{
		Entity:   req.Entity,
		KeyField: req.LocalKey,
		Key:      req.Key,
		Scope:    req.Scope,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	plan := Diff(records, snapshot, req)
	plan.Summary.Duplicates = len(snapshot.Duplicates)

	if err := ApplyPlan(ctx, store, req.Entity, plan, callbacks); err != nil {
		return nil, err
	}

	log.Debug("Reconciliation complete",
		zap.Int("remote", plan.Summary.Remote),
		zap.Int("inserted", plan.Summary.Inserted),
		zap.Int("updated", plan.Summary.Updated),
		zap.Int("deleted", plan.Summary.Deleted),
		zap.Int("skipped", plan.Summary.Skipped),
		zap.Int("duplicates", plan.Summary.Duplicates),
	)

	return &Result{
		Plan:       *plan,
		Duplicates: append([]LocalID{}, snapshot.Duplicates...),
	}, nil
}

// ApplyPlan executes a plan: callbacks for inserts and updates in plan order,
// then one batched deletion for the planned delete actions.
func ApplyPlan(ctx context.Context, store LocalStore, entity string, plan *Plan, callbacks Callbacks) error {
	var deletions []LocalID

	for _, action := range plan.Actions {
		switch action.Type {
		case ActionInsert:
			if callbacks.OnInsert == nil {
				continue
			}
			if err := callbacks.OnInsert(ctx, store, action.Record); err != nil {
				return fmt.Errorf("%w: insert record %d (key %s): %w", ErrCallback, action.Index, action.Key, err)
			}
		case ActionUpdate:
			if callbacks.OnUpdate == nil {
				continue
			}
			if err := callbacks.OnUpdate(ctx, store, action.Record, action.LocalID); err != nil {
				return fmt.Errorf("%w: update record %d (key %s): %w", ErrCallback, action.Index, action.Key, err)
			}
		case ActionDelete:
			deletions = append(deletions, action.LocalID)
		}
	}

	if len(deletions) == 0 {
		return nil
	}
	if err := store.Delete(ctx, entity, deletions); err != nil {
		return storeError("delete", entity, err)
	}
	return nil
}

// Preview computes the plan Reconcile would execute without writing anything.
// Local key duplicates are reported in Result.Duplicates but not deleted.
func Preview(ctx context.Context, store LocalStore, records []Record, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	locals, err := store.Enumerate(ctx, req.Entity, req.LocalKey, req.Scope)
	if err != nil {
		return nil, storeError("enumerate", req.Entity, err)
	}
	snapshot := NewSnapshot(locals, req.Key)

	plan := Diff(records, snapshot, req)
	plan.Summary.Duplicates = len(snapshot.Duplicates)

	return &Result{
		Plan:       *plan,
		Duplicates: append([]LocalID{}, snapshot.Duplicates...),
	}, nil
}
