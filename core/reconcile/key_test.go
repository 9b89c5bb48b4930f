package reconcile

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	auto := KeySpec{}
	tests := []struct {
		name  string
		value any
		spec  KeySpec
		want  Key
	}{
		{"Nil", nil, auto, NullKey},
		{"Int", 7, auto, IntKey(7)},
		{"Int64", int64(7), auto, IntKey(7)},
		{"Uint8", uint8(7), auto, IntKey(7)},
		{"Integral Float", 7.0, auto, IntKey(7)},
		{"Fractional Float", 7.5, auto, UnresolvableKey},
		{"NaN", math.NaN(), auto, UnresolvableKey},
		{"Huge Uint", uint64(math.MaxUint64), auto, UnresolvableKey},
		{"JSON Number", json.Number("42"), auto, IntKey(42)},
		{"JSON Float Number", json.Number("42.0"), auto, IntKey(42)},
		{"String", "123", auto, StringKey("123")},
		{"Bytes", []byte("abc"), auto, StringKey("abc")},
		{"Bool", true, auto, BoolKey(true)},
		{"Slice", []any{1}, auto, UnresolvableKey},
		{"Map", map[string]any{}, auto, UnresolvableKey},

		{"Int Type Int", 5, KeySpec{Type: KeyTypeInt}, IntKey(5)},
		{"Int Type String Strict", "5", KeySpec{Type: KeyTypeInt}, UnresolvableKey},
		{"Int Type String Coerced", " 5", KeySpec{Type: KeyTypeInt, Coerce: true}, IntKey(5)},
		{"Int Type Non Digit Coerced", "five", KeySpec{Type: KeyTypeInt, Coerce: true}, UnresolvableKey},
		{"Int Type Bool", true, KeySpec{Type: KeyTypeInt}, UnresolvableKey},
		{"Int Type Null", nil, KeySpec{Type: KeyTypeInt}, NullKey},

		{"String Type String", "abc", KeySpec{Type: KeyTypeString}, StringKey("abc")},
		{"String Type Int Strict", 5, KeySpec{Type: KeyTypeString}, UnresolvableKey},
		{"String Type Int Coerced", 5, KeySpec{Type: KeyTypeString, Coerce: true}, StringKey("5")},

		{"Auto String Coerced", "5", KeySpec{Coerce: true}, IntKey(5)},
		{"Auto Padded String Coerced", " 5 ", KeySpec{Type: KeyTypeAuto, Coerce: true}, IntKey(5)},
		{"Auto Non Digit Coerced", "abc", KeySpec{Type: KeyTypeAuto, Coerce: true}, StringKey("abc")},
		{"Auto Int Coerced", 5, KeySpec{Type: KeyTypeAuto, Coerce: true}, IntKey(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.value, tt.spec))
		})
	}
}

func TestKey_NoCrossTypeEquality(t *testing.T) {
	assert.NotEqual(t, IntKey(1), StringKey("1"))
	assert.NotEqual(t, IntKey(1), BoolKey(true))
	assert.NotEqual(t, IntKey(0), NullKey)
	assert.NotEqual(t, StringKey(""), NullKey)
	assert.NotEqual(t, NullKey, UnresolvableKey)
}

func TestKey_Accessors(t *testing.T) {
	assert.Equal(t, KindInt, IntKey(3).Kind())
	assert.Equal(t, int64(3), IntKey(3).Value())
	assert.Equal(t, "abc", StringKey("abc").Value())
	assert.Equal(t, false, BoolKey(false).Value())
	assert.Nil(t, NullKey.Value())
	assert.False(t, UnresolvableKey.Resolved())
	assert.True(t, NullKey.Resolved())

	assert.Equal(t, "3", IntKey(3).String())
	assert.Equal(t, `"abc"`, StringKey("abc").String())
	assert.Equal(t, "null", NullKey.String())
	assert.Equal(t, "<unresolvable>", UnresolvableKey.String())
	assert.Equal(t, "string", KindString.String())
}

func TestKey_MarshalJSON(t *testing.T) {
	out, err := json.Marshal([]Key{IntKey(1), StringKey("a"), NullKey, BoolKey(true)})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, "a", null, true]`, string(out))
}

func TestParseKeyType(t *testing.T) {
	tests := []struct {
		in      string
		want    KeyType
		wantErr bool
	}{
		{"", KeyTypeAuto, false},
		{"auto", KeyTypeAuto, false},
		{"INT", KeyTypeInt, false},
		{"integer", KeyTypeInt, false},
		{"string", KeyTypeString, false},
		{" text ", KeyTypeString, false},
		{"uuid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
