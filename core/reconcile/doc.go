// Package reconcile diffs a sequence of remote records against a local keyed
// store.
//
// Each remote record is classified as an insert, or as an update paired with
// the local record holding the same key. Local records that no remote record
// claims form the deletion set.
//
// # Components
//
//   - Normalize: converts heterogeneous key values (ints, strings, JSON
//     numbers, null) into a comparable Key tagged with its kind. Keys of
//     different kinds never compare equal unless KeySpec.Coerce is set.
//   - BuildSnapshot: enumerates local records through a LocalStore, indexes
//     them by key and deletes later records that collide with an earlier key.
//   - ScanRemote: walks the remote sequence in order. An explicit null key is
//     matchable; a missing key skips the record.
//   - Diff: single pass producing an ordered Plan of insert, update and delete
//     actions, filtered by an Operation set.
//   - Reconcile: runs the whole cycle, inside a transaction when the store
//     implements Transactor.
//
// # Usage
//
//	result, err := reconcile.Reconcile(ctx, store, records, reconcile.Request{
//	    Entity:     "users",
//	    LocalKey:   "remote_id",
//	    RemoteKey:  "id",
//	    Operations: reconcile.OperationInsert | reconcile.OperationUpdate,
//	}, reconcile.Callbacks{
//	    OnInsert: func(ctx context.Context, s reconcile.LocalStore, rec reconcile.Record) error { ... },
//	    OnUpdate: func(ctx context.Context, s reconcile.LocalStore, rec reconcile.Record, id reconcile.LocalID) error { ... },
//	})
package reconcile
