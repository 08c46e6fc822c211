// Package canonical converts JSON-compatible values into a canonical form
// for order-insensitive structural comparison. Overlay authors and the live
// API routinely list array members (map references, requirement lists) in
// different orders; canonicalization keeps that from producing false
// mismatches during reconciliation.
//
// Values are represented as an explicit tree (null, bool, number, string,
// array, object) with a deterministic serialization, so comparison never
// depends on a serialization library's key-ordering behavior.
package canonical

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tarkovhub/overlay/pkg/errors"
)

// Kind identifies the type of a canonical value.
type Kind int

// Canonical value kinds.
const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "unknown"
}

// Member is a single key/value pair of an object value.
type Member struct {
	Key   string
	Value Value
}

// Value is a canonical JSON-compatible value. The zero value is null.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	str     string
	array   []Value
	object  []Member
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// FromAny converts a decoded JSON/YAML value into a canonical Value.
// Supported inputs are nil, bool, string, all Go numeric types,
// json.Number, []any, and map[string]any, recursively. Anything else is a
// data-model violation and fails fast.
func FromAny(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return Value{kind: Bool, boolean: val}, nil
	case string:
		return Value{kind: String, str: val}, nil
	case float64:
		return Value{kind: Number, number: val}, nil
	case float32:
		return Value{kind: Number, number: float64(val)}, nil
	case int:
		return Value{kind: Number, number: float64(val)}, nil
	case int64:
		return Value{kind: Number, number: float64(val)}, nil
	case uint64:
		return Value{kind: Number, number: float64(val)}, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Value{}, errors.WrapParse("json", "", err)
		}
		return Value{kind: Number, number: f}, nil
	case []any:
		arr := make([]Value, 0, len(val))
		for i, elem := range val {
			cv, err := FromAny(elem)
			if err != nil {
				return Value{}, fmt.Errorf("array index %d: %w", i, err)
			}
			arr = append(arr, cv)
		}
		return Value{kind: Array, array: arr}, nil
	case map[string]any:
		members := make([]Member, 0, len(val))
		for key, elem := range val {
			cv, err := FromAny(elem)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			members = append(members, Member{Key: key, Value: cv})
		}
		return Value{kind: Object, object: members}, nil
	default:
		return Value{}, &errors.ValidationError{
			Message: fmt.Sprintf("unsupported value type %T", raw),
		}
	}
}

// MustFromAny is FromAny for values already known to be JSON-compatible.
// It panics on unsupported input and exists mainly for tests.
func MustFromAny(raw any) Value {
	v, err := FromAny(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Normalize returns the canonical form of v: object members sorted by key,
// array elements sorted by their derived sort key, scalars unchanged.
// Normalize is idempotent.
func Normalize(v Value) Value {
	switch v.kind {
	case Array:
		arr := make([]Value, len(v.array))
		for i, elem := range v.array {
			arr[i] = Normalize(elem)
		}
		sort.SliceStable(arr, func(i, j int) bool {
			return arr[i].sortKey() < arr[j].sortKey()
		})
		return Value{kind: Array, array: arr}
	case Object:
		members := make([]Member, len(v.object))
		for i, m := range v.object {
			members[i] = Member{Key: m.Key, Value: Normalize(m.Value)}
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Key < members[j].Key
		})
		return Value{kind: Object, object: members}
	default:
		return v
	}
}

// sortKey derives the string used to order array elements: scalars use
// their literal form, arrays and objects their serialization. Elements
// with equal keys keep their relative order.
func (v Value) sortKey() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.boolean)
	case Number:
		return formatNumber(v.number)
	case String:
		return v.str
	default:
		return v.JSON()
	}
}

// Equal reports whether a and b are structurally equal after
// normalization.
func Equal(a, b Value) bool {
	return Compare(Normalize(a), Normalize(b)) == 0
}

// EqualAny is Equal over raw decoded values. Inputs that violate the data
// model are reported as an error rather than silently unequal.
func EqualAny(a, b any) (bool, error) {
	ca, err := FromAny(a)
	if err != nil {
		return false, err
	}
	cb, err := FromAny(b)
	if err != nil {
		return false, err
	}
	return Equal(ca, cb), nil
}

// Compare totally orders two canonical values. Values of different kinds
// order by kind; same-kind values order by content. Both inputs should
// already be normalized when ordering matters.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}

	switch a.kind {
	case Null:
		return 0
	case Bool:
		if a.boolean == b.boolean {
			return 0
		}
		if !a.boolean {
			return -1
		}
		return 1
	case Number:
		switch {
		case a.number < b.number:
			return -1
		case a.number > b.number:
			return 1
		}
		return 0
	case String:
		return strings.Compare(a.str, b.str)
	case Array:
		for i := 0; i < len(a.array) && i < len(b.array); i++ {
			if c := Compare(a.array[i], b.array[i]); c != 0 {
				return c
			}
		}
		return len(a.array) - len(b.array)
	case Object:
		for i := 0; i < len(a.object) && i < len(b.object); i++ {
			if c := strings.Compare(a.object[i].Key, b.object[i].Key); c != 0 {
				return c
			}
			if c := Compare(a.object[i].Value, b.object[i].Value); c != 0 {
				return c
			}
		}
		return len(a.object) - len(b.object)
	}
	return 0
}

// JSON returns a compact deterministic JSON serialization of v. Object
// keys appear in member order, so serialize normalized values when a
// canonical byte form is required.
func (v Value) JSON() string {
	var sb strings.Builder
	v.writeJSON(&sb)
	return sb.String()
}

func (v Value) writeJSON(sb *strings.Builder) {
	switch v.kind {
	case Null:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(v.boolean))
	case Number:
		sb.WriteString(formatNumber(v.number))
	case String:
		encoded, _ := json.Marshal(v.str)
		sb.Write(encoded)
	case Array:
		sb.WriteByte('[')
		for i, elem := range v.array {
			if i > 0 {
				sb.WriteByte(',')
			}
			elem.writeJSON(sb)
		}
		sb.WriteByte(']')
	case Object:
		sb.WriteByte('{')
		for i, m := range v.object {
			if i > 0 {
				sb.WriteByte(',')
			}
			encoded, _ := json.Marshal(m.Key)
			sb.Write(encoded)
			sb.WriteByte(':')
			m.Value.writeJSON(sb)
		}
		sb.WriteByte('}')
	}
}

// String renders v for human-readable reconciliation messages.
func (v Value) String() string {
	if v.kind == String {
		return v.str
	}
	return v.JSON()
}

// formatNumber renders integral floats without an exponent or trailing
// decimals, matching how the values were authored.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
