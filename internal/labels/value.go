package labels

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Value is a label value: a bool, a number or a string.
// Values decoded from manifests keep the type they had in the JSON document.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String returns a string label value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric label value
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean label value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// FromAny converts a decoded JSON, YAML or TOML scalar into a Value.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", x.String(), err)
		}
		return Number(f), nil
	case nil:
		return Value{}, fmt.Errorf("label value must not be null")
	default:
		return Value{}, fmt.Errorf("label value must be a bool, number or string, got %T", v)
	}
}

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// Truthy reports whether the value counts as set: true, a non-zero number or
// a non-empty string.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	default:
		return v.str != ""
	}
}

// Equal reports whether both values have the same kind and the same content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	default:
		return v.str == o.str
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return v.str
	}
}

// Interface returns the value as a plain Go bool, float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	default:
		return v.str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Set maps label keys to their values
type Set map[string]Value

// Keys returns the label keys in sorted order
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of s
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// String renders the set as sorted key=value pairs joined by commas.
func (s Set) String() string {
	parts := make([]string, 0, len(s))
	for _, k := range s.Keys() {
		parts = append(parts, k+"="+s[k].String())
	}
	return strings.Join(parts, ",")
}
