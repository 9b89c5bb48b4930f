package reconcile

import (
	"context"

	"go.uber.org/zap"
)

// Record is one decoded remote object. The engine never mutates it.
type Record = map[string]any

// LocalID is the opaque identifier a LocalStore issues for one of its records.
type LocalID string

// LocalRecord is a single local record yielded by a store enumeration.
type LocalRecord struct {
	// ID identifies the record inside its store.
	ID LocalID

	// Value is the raw value of the local key attribute.
	Value any

	// Row holds the remaining attributes. Stores may leave it nil.
	Row map[string]any
}

// LocalStore is the persistence side of a reconciliation.
type LocalStore interface {
	// Enumerate returns every record of entity that satisfies scope (all records
	// when scope is nil), in a deterministic order.
	Enumerate(ctx context.Context, entity, keyField string, scope Scope) ([]LocalRecord, error)

	// Delete removes the given records of entity.
	Delete(ctx context.Context, entity string, ids []LocalID) error
}

// Transactor is implemented by stores that can run a unit of work atomically.
// Reconcile uses it so the whole call observes one consistent read and a
// failure leaves the store untouched.
type Transactor interface {
	Transaction(ctx context.Context, fn func(store LocalStore) error) error
}

// Request configures a reconciliation call.
type Request struct {
	// Entity is the local entity category (table, collection).
	Entity string

	// LocalKey is the local attribute holding the primary key.
	LocalKey string

	// RemoteKey is the key path of the primary key in remote records.
	// Nested objects are addressed with dots, e.g. "user.id".
	RemoteKey string

	// Key declares how both keys are normalized before comparison.
	Key KeySpec

	// Scope optionally restricts which local records take part.
	Scope Scope

	// Operations selects which operation classes are materialized.
	// The zero value means OperationAll.
	Operations Operation

	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

func (r Request) operations() Operation {
	if r.Operations == 0 {
		return OperationAll
	}
	return r.Operations
}

func (r Request) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r Request) validate() error {
	if r.Entity == "" {
		return invalidRequest("entity is required")
	}
	if r.LocalKey == "" {
		return invalidRequest("local key is required")
	}
	if r.RemoteKey == "" {
		return invalidRequest("remote key is required")
	}
	if r.Operations&^OperationAll != 0 {
		return invalidRequest("unknown operation bits")
	}
	return nil
}

// Callbacks receive the insert and update decisions of a reconciliation, in
// remote input order. store is the store of the running unit of work (the
// transaction-bound store when the call runs in a transaction); writes made
// by callbacks must go through it. A nil callback is a no-op. Returning an
// error aborts the call before any deletion is materialized.
type Callbacks struct {
	OnInsert func(ctx context.Context, store LocalStore, record Record) error
	OnUpdate func(ctx context.Context, store LocalStore, record Record, id LocalID) error
}

// ActionType is the kind of a planned decision.
type ActionType string

const (
	// ActionInsert creates a local record from a remote one.
	ActionInsert ActionType = "insert"
	// ActionUpdate refreshes a matched local record from a remote one.
	ActionUpdate ActionType = "update"
	// ActionDelete removes a local record that has no remote counterpart.
	ActionDelete ActionType = "delete"
)

// Action is one decision of a plan.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Index is the position of the remote record in the input sequence.
	// It is -1 for deletions.
	Index int `json:"index"`

	// Key is the normalized primary key.
	Key Key `json:"key"`

	// LocalID is set for updates and deletions.
	LocalID LocalID `json:"local_id,omitempty"`

	// Record is the remote source for inserts and updates.
	Record Record `json:"-"`
}

// Plan is the output of Diff: ordered decisions plus the computed deletion set.
type Plan struct {
	// Actions holds inserts and updates in remote input order, followed by
	// deletions in snapshot order. Suppressed operation classes are absent.
	Actions []Action `json:"actions"`

	// Residual is the deletion set: local records left unmatched after the
	// pass. It is computed even when deletions are filtered out.
	Residual []LocalID `json:"residual"`

	// Skipped lists the input indices of remote records without a usable key.
	Skipped []int `json:"skipped"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`
}

// Summary provides aggregate counts for a plan or a completed reconciliation.
type Summary struct {
	// Remote is the number of remote records in the input.
	Remote int `json:"remote"`

	// Inserted counts insert decisions.
	Inserted int `json:"inserted"`

	// Updated counts update decisions.
	Updated int `json:"updated"`

	// Deleted counts delete decisions.
	Deleted int `json:"deleted"`

	// Skipped counts remote records with a missing or unresolvable key.
	Skipped int `json:"skipped"`

	// Residual is the size of the deletion set before filtering.
	Residual int `json:"residual"`

	// Unmatched counts new remote records whose insert was filtered out.
	Unmatched int `json:"unmatched"`

	// Suppressed counts matched remote records whose update was filtered out.
	Suppressed int `json:"suppressed"`

	// Duplicates counts local records removed while building the snapshot.
	Duplicates int `json:"duplicates"`
}

// Result is the outcome of a completed Reconcile call.
type Result struct {
	Plan

	// Duplicates lists the local records deleted as key duplicates.
	Duplicates []LocalID `json:"duplicates"`
}
