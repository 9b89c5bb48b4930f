package reconcile

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// Scope restricts which local records take part in a reconciliation.
// Records outside the scope are invisible: they are never matched and never
// deleted by the call.
type Scope interface {
	// Matches reports whether a local row belongs to the scope.
	Matches(row map[string]any) (bool, error)
}

// FieldScope is implemented by equality scopes. SQL stores push them down
// into the WHERE clause instead of filtering rows in memory.
type FieldScope interface {
	Scope
	Field() (name string, value any)
}

// ScopeFunc adapts a Go predicate to Scope.
type ScopeFunc func(row map[string]any) bool

// Matches calls f.
func (f ScopeFunc) Matches(row map[string]any) (bool, error) {
	return f(row), nil
}

// FieldEquals scopes to records whose field equals value. Both sides are
// normalized, so an int literal matches an int64 column value. A nil value
// matches null fields.
func FieldEquals(field string, value any) FieldScope {
	return fieldEquals{field: field, value: value}
}

type fieldEquals struct {
	field string
	value any
}

func (s fieldEquals) Matches(row map[string]any) (bool, error) {
	got, ok := row[s.field]
	if !ok {
		return false, nil
	}
	want := Normalize(s.value, KeySpec{})
	return want.Resolved() && Normalize(got, KeySpec{}) == want, nil
}

func (s fieldEquals) Field() (string, any) {
	return s.field, s.value
}

// And scopes to records matching every non-nil scope. It returns nil when no
// scope is left and the scope itself when only one is.
func And(scopes ...Scope) Scope {
	var all Conjunction
	for _, scope := range scopes {
		switch s := scope.(type) {
		case nil:
		case Conjunction:
			all = append(all, s...)
		default:
			all = append(all, s)
		}
	}
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	}
	return all
}

// Conjunction is the scope built by And. Stores may split it into parts they
// push down and parts they evaluate themselves.
type Conjunction []Scope

// Matches reports whether row satisfies every part, stopping at the first
// miss.
func (c Conjunction) Matches(row map[string]any) (bool, error) {
	for _, scope := range c {
		ok, err := scope.Matches(row)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Expr compiles an expr-lang expression evaluated against each local row,
// e.g. `remote_id == 0 && age > 18`. Unknown identifiers evaluate to nil.
func Expr(expression string) (Scope, error) {
	if expression == "" {
		return nil, invalidRequest("scope expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scope %q: %w", ErrInvalidRequest, expression, err)
	}
	return &exprScope{expression: expression, program: program}, nil
}

type exprScope struct {
	expression string
	program    *exprvm.Program
}

func (s *exprScope) Matches(row map[string]any) (bool, error) {
	env := make(map[string]any, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		env[k] = v
	}
	out, err := exprlang.Run(s.program, env)
	if err != nil {
		return false, fmt.Errorf("scope %q: %w", s.expression, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: scope %q returned %T, want bool", ErrInvalidRequest, s.expression, out)
	}
	return matched, nil
}

func (s *exprScope) String() string {
	return s.expression
}
