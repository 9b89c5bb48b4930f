package store

import (
	"context"
	"fmt"
	"regexp"

	"record-sync/core/reconcile"
)

// Store is a reconcile.LocalStore that can also write records. The records
// feature applies insert and update decisions through it.
type Store interface {
	reconcile.LocalStore

	// Insert creates a record of entity and returns its identifier.
	Insert(ctx context.Context, entity string, values map[string]any) (reconcile.LocalID, error)

	// Update overwrites the given attributes of a record.
	Update(ctx context.Context, entity string, id reconcile.LocalID, values map[string]any) error

	// Columns lists the writable attributes of entity. A nil slice means the
	// store accepts any attribute.
	Columns(ctx context.Context, entity string) ([]string, error)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdentifier guards table and column names that end up in SQL text.
func validIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: invalid %s name %q", reconcile.ErrInvalidRequest, kind, name)
	}
	return nil
}
