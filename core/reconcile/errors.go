package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for incomplete or inconsistent requests.
	ErrInvalidRequest = errors.New("invalid reconcile request")

	// ErrMalformedRecord is returned when the remote sequence contains an
	// element that is not an object. Nothing is processed in that case.
	ErrMalformedRecord = errors.New("malformed remote record")

	// ErrStoreAccess wraps failures reported by the local store.
	ErrStoreAccess = errors.New("local store access failed")

	// ErrCallback wraps errors returned by insert and update callbacks.
	ErrCallback = errors.New("reconcile callback failed")
)

func invalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

func storeError(op, entity string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStoreAccess, op, entity, err)
}
