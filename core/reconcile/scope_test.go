package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldEquals(t *testing.T) {
	scope := FieldEquals("remote_id", 0)

	ok, err := scope.Matches(map[string]any{"remote_id": int64(0)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = scope.Matches(map[string]any{"remote_id": "0"})
	assert.False(t, ok)

	ok, _ = scope.Matches(map[string]any{"other": 0})
	assert.False(t, ok)

	field, value := scope.Field()
	assert.Equal(t, "remote_id", field)
	assert.Equal(t, 0, value)

	ok, _ = FieldEquals("remote_id", nil).Matches(map[string]any{"remote_id": nil})
	assert.True(t, ok)

	ok, _ = FieldEquals("remote_id", nil).Matches(map[string]any{"remote_id": int64(0)})
	assert.False(t, ok)
}

func TestAnd(t *testing.T) {
	assert.Nil(t, And())
	assert.Nil(t, And(nil, nil))

	tenant := FieldEquals("tenant_id", 3)
	assert.Equal(t, Scope(tenant), And(nil, tenant))

	active, err := Expr("active")
	require.NoError(t, err)

	scope := And(tenant, And(active, nil))
	parts, ok := scope.(Conjunction)
	require.True(t, ok)
	assert.Len(t, parts, 2)

	matched, err := scope.Matches(map[string]any{"tenant_id": int64(3), "active": true})
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = scope.Matches(map[string]any{"tenant_id": int64(4), "active": true})
	require.NoError(t, err)
	assert.False(t, matched)

	matched, err = scope.Matches(map[string]any{"tenant_id": int64(3), "active": false})
	require.NoError(t, err)
	assert.False(t, matched)

	_, err = And(tenant, ScopeFunc(func(map[string]any) bool { return true }), mustExpr(t, "tenant_id")).
		Matches(map[string]any{"tenant_id": int64(3)})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func mustExpr(t *testing.T, expression string) Scope {
	t.Helper()
	scope, err := Expr(expression)
	require.NoError(t, err)
	return scope
}

func TestExpr(t *testing.T) {
	scope, err := Expr(`remote_id == 0 && name startsWith "E"`)
	require.NoError(t, err)

	ok, err := scope.Matches(map[string]any{"remote_id": int64(0), "name": []byte("Elvis")})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = scope.Matches(map[string]any{"remote_id": int64(1), "name": "Elvis"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, pushable := scope.(FieldScope)
	assert.False(t, pushable)
}

func TestExpr_Errors(t *testing.T) {
	_, err := Expr("")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = Expr("remote_id ==")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	scope, err := Expr("remote_id")
	require.NoError(t, err)
	_, err = scope.Matches(map[string]any{"remote_id": 3})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestScopeFunc(t *testing.T) {
	scope := ScopeFunc(func(row map[string]any) bool { return row["active"] == true })

	ok, err := scope.Matches(map[string]any{"active": true})
	assert.NoError(t, err)
	assert.True(t, ok)
}
