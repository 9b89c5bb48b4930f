package reconcile

import (
	"fmt"
	"strings"
)

// Operation is a set of operation classes a reconciliation may materialize.
type Operation uint8

const (
	// OperationInsert materializes inserts of new remote records.
	OperationInsert Operation = 1 << iota
	// OperationUpdate materializes updates of matched local records.
	OperationUpdate
	// OperationDelete materializes deletion of unmatched local records.
	OperationDelete

	// OperationAll is the union of every operation class.
	OperationAll = OperationInsert | OperationUpdate | OperationDelete
)

// Has reports whether every class in other is part of o.
// The zero Operation behaves like OperationAll.
func (o Operation) Has(other Operation) bool {
	if o == 0 {
		o = OperationAll
	}
	return o&other == other
}

func (o Operation) String() string {
	if o == 0 || o == OperationAll {
		return "all"
	}
	var parts []string
	if o&OperationInsert != 0 {
		parts = append(parts, "insert")
	}
	if o&OperationUpdate != 0 {
		parts = append(parts, "update")
	}
	if o&OperationDelete != 0 {
		parts = append(parts, "delete")
	}
	return strings.Join(parts, ",")
}

// ParseOperations parses a comma separated list such as "insert,update".
// An empty string or "all" yields OperationAll.
func ParseOperations(s string) (Operation, error) {
	var ops Operation
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "all":
			ops |= OperationAll
		case "insert":
			ops |= OperationInsert
		case "update":
			ops |= OperationUpdate
		case "delete":
			ops |= OperationDelete
		default:
			return 0, fmt.Errorf("%w: unknown operation %q", ErrInvalidRequest, part)
		}
	}
	if ops == 0 {
		return OperationAll, nil
	}
	return ops, nil
}
