package answers

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindAbsent marks a key that is not present in the set.
	KindAbsent Kind = iota
	// KindNull marks an explicit JSON null.
	KindNull
	KindString
	KindBool
	KindNumber
	// KindOther wraps lists, objects and any other payload the form client
	// submits. These values are kept opaque.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindOther:
		return "other"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged response value. The zero Value is absent.
type Value struct {
	kind  Kind
	str   string
	b     bool
	num   float64
	other any
}

// Absent returns the value used for keys missing from a Set.
func Absent() Value { return Value{} }

// Null returns an explicit null value.
func Null() Value { return Value{kind: KindNull} }

// String wraps a string response.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool wraps a boolean response.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a numeric response.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Of converts a loosely typed Go value (as produced by encoding/json or
// yaml.v3) into a Value.
func Of(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int8:
		return Number(float64(v))
	case int16:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint:
		return Number(float64(v))
	case uint8:
		return Number(float64(v))
	case uint16:
		return Number(float64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return Number(f)
		}
		return String(v.String())
	case []byte:
		return String(string(v))
	default:
		return Value{kind: KindOther, other: raw}
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Present reports whether the key existed in the set, even when its value is
// null or empty.
func (v Value) Present() bool { return v.kind != KindAbsent }

// Answered reports whether a form field holding v counts as answered: the key
// is present and the value is not the empty string. Falsy non-string values
// such as false or 0 are answers.
func (v Value) Answered() bool {
	if v.kind == KindAbsent {
		return false
	}
	return !(v.kind == KindString && v.str == "")
}

// Truthy applies the loose truthiness used by hide expressions and the
// implicit signature field.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindOther:
		return v.other != nil
	default:
		return false
	}
}

// Str returns the string payload and whether v holds a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// BoolValue returns the boolean payload and whether v holds a bool.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

// Num returns the numeric payload and whether v holds a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Interface returns the plain Go representation of v. Absent and null both
// map to nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindOther:
		return v.other
	default:
		return nil
	}
}

// ToNumber converts v to a number the way loose comparisons do. Strings that
// do not parse, absent values and opaque values yield NaN.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNull:
		return 0
	case KindString:
		trimmed := strings.TrimSpace(v.str)
		if trimmed == "" {
			return 0
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Display renders v for humans (document listings, CLI output).
func (v Value) Display() string {
	switch v.kind {
	case KindAbsent, KindNull:
		return ""
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "yes"
		}
		return "no"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return fmt.Sprint(v.other)
	}
}

// MarshalJSON encodes v as its plain JSON representation.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes any JSON value into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Of(raw)
	return nil
}

// Set maps field keys to responses. A nil Set is a valid empty set.
type Set map[string]Value

// FromMap converts decoded JSON/YAML responses into a Set.
func FromMap(raw map[string]any) Set {
	out := make(Set, len(raw))
	for key, value := range raw {
		out[key] = Of(value)
	}
	return out
}

// Get returns the value stored under key, or Absent when missing.
func (s Set) Get(key string) Value {
	if s == nil {
		return Absent()
	}
	v, ok := s[key]
	if !ok {
		return Absent()
	}
	return v
}

// Answered reports whether key holds an answer.
func (s Set) Answered(key string) bool {
	return s.Get(key).Answered()
}

// Lookup resolves a dotted path. An exact key match wins over traversal so
// flattened keys such as "address.city" resolve directly.
func (s Set) Lookup(path string) Value {
	path = strings.TrimSpace(path)
	if path == "" || s == nil {
		return Absent()
	}
	if v, ok := s[path]; ok {
		return v
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return Absent()
	}
	v, ok := s[head]
	if !ok {
		return Absent()
	}
	return descend(v.Interface(), rest)
}

func descend(current any, path string) Value {
	for _, part := range strings.Split(path, ".") {
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return Absent()
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return Absent()
			}
			current = next
		case Set:
			next, ok := typed[part]
			if !ok {
				return Absent()
			}
			current = next.Interface()
		default:
			return Absent()
		}
	}
	return Of(current)
}

// Clone returns a shallow copy of s.
func (s Set) Clone() Set {
	if s == nil {
		return Set{}
	}
	out := make(Set, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}

// Map converts s back into plain Go values.
func (s Set) Map() map[string]any {
	out := make(map[string]any, len(s))
	for key, value := range s {
		if !value.Present() {
			continue
		}
		out[key] = value.Interface()
	}
	return out
}

// Keys returns the keys of s in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes s as a JSON object, dropping absent entries.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// UnmarshalJSON decodes a JSON object into s.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("answers: decode set: %w", err)
	}
	*s = FromMap(raw)
	return nil
}
