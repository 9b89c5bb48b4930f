package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// KeyKind tags the payload of a Key.
type KeyKind uint8

const (
	// KindUnresolvable marks a value that cannot serve as a key. It never
	// matches anything, including another unresolvable key.
	KindUnresolvable KeyKind = iota
	// KindNull is an explicit null value.
	KindNull
	// KindInt is an integer key.
	KindInt
	// KindString is a textual key.
	KindString
	// KindBool is a boolean key.
	KindBool
)

func (k KeyKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unresolvable"
	}
}

// Key is the normalized, comparable form of a primary-key value.
// Keys are equal only when both kind and payload are equal, so Key can be
// used directly as a map key.
type Key struct {
	kind KeyKind
	num  int64
	str  string
}

// NullKey is the key of an explicit null value.
var NullKey = Key{kind: KindNull}

// UnresolvableKey is returned for values that cannot be normalized.
var UnresolvableKey = Key{}

// IntKey builds an integer key.
func IntKey(n int64) Key { return Key{kind: KindInt, num: n} }

// StringKey builds a textual key.
func StringKey(s string) Key { return Key{kind: KindString, str: s} }

// BoolKey builds a boolean key.
func BoolKey(b bool) Key {
	if b {
		return Key{kind: KindBool, num: 1}
	}
	return Key{kind: KindBool}
}

// Kind reports the type tag of k.
func (k Key) Kind() KeyKind { return k.kind }

// Resolved reports whether k can take part in matching.
func (k Key) Resolved() bool { return k.kind != KindUnresolvable }

// Value returns the payload as a plain Go value (nil for null keys).
func (k Key) Value() any {
	switch k.kind {
	case KindInt:
		return k.num
	case KindString:
		return k.str
	case KindBool:
		return k.num == 1
	default:
		return nil
	}
}

func (k Key) String() string {
	switch k.kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(k.num, 10)
	case KindString:
		return strconv.Quote(k.str)
	case KindBool:
		return strconv.FormatBool(k.num == 1)
	default:
		return "<unresolvable>"
	}
}

// MarshalJSON renders the key payload; unresolvable keys render as null.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value())
}

// KeyType is the declared comparison type of a key field.
type KeyType string

const (
	// KeyTypeAuto classifies each value by its dynamic type.
	KeyTypeAuto KeyType = "auto"
	// KeyTypeInt normalizes keys to integers.
	KeyTypeInt KeyType = "int"
	// KeyTypeString normalizes keys to strings.
	KeyTypeString KeyType = "string"
)

// ParseKeyType parses a configured key type. The empty string means auto.
func ParseKeyType(s string) (KeyType, error) {
	switch KeyType(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyTypeAuto:
		return KeyTypeAuto, nil
	case KeyTypeInt, "integer":
		return KeyTypeInt, nil
	case KeyTypeString, "text":
		return KeyTypeString, nil
	default:
		return "", invalidRequest(fmt.Sprintf("unknown key type %q", s))
	}
}

// KeySpec declares how key values are normalized.
type KeySpec struct {
	// Type is the declared comparison type.
	Type KeyType

	// Coerce declares local and remote fields type-compatible. Under int and
	// auto, textual digits normalize to integer keys; under string, integers
	// normalize to decimal string keys.
	Coerce bool
}

// Normalize converts a local or remote key value to its canonical Key.
// nil yields NullKey; values that do not fit spec yield UnresolvableKey.
func Normalize(value any, spec KeySpec) Key {
	if value == nil {
		return NullKey
	}

	switch spec.Type {
	case KeyTypeInt:
		if n, ok := integer(value); ok {
			return IntKey(n)
		}
		if s, ok := text(value); ok && spec.Coerce {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return IntKey(n)
			}
		}
		return UnresolvableKey

	case KeyTypeString:
		if s, ok := text(value); ok {
			return StringKey(s)
		}
		if n, ok := integer(value); ok && spec.Coerce {
			return StringKey(strconv.FormatInt(n, 10))
		}
		return UnresolvableKey

	default:
		if n, ok := integer(value); ok {
			return IntKey(n)
		}
		if s, ok := text(value); ok {
			if spec.Coerce {
				if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
					return IntKey(n)
				}
			}
			return StringKey(s)
		}
		if b, ok := value.(bool); ok {
			return BoolKey(b)
		}
		return UnresolvableKey
	}
}

// integer extracts an integral number from the numeric Go types produced by
// decoders and database drivers.
func integer(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return unsigned(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return unsigned(v)
	case float32:
		return integral(float64(v))
	case float64:
		return integral(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return integral(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func unsigned(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func text(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}
