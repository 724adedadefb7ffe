// Package record defines the per-request client record: a mapping from
// attribute name to a raw value restricted to strings, numbers or null.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	default:
		return "null"
	}
}

// Value is a raw attribute value. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  json.Number
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a numeric value from its JSON literal.
func Number(n json.Number) Value {
	return Value{kind: KindNumber, num: n}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Str returns the string and true when v holds a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Category returns the key used to look v up in a WoE table. Strings are
// used as-is. Numbers are rendered the way the model was trained: integer
// literals as exact integers, everything else as the shortest round-trip
// float, with a ".0" suffix when integral and exponent notation outside
// [1e-4, 1e16). The second result is false for null.
func (v Value) Category() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return formatNumber(v.num), true
	default:
		return "", false
	}
}

func formatNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, ok := new(big.Int).SetString(s, 10); ok {
			return i.String()
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return s
	}
	return formatFloat(f)
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	// shortest digits in exponent form, e.g. "1.5e-05"
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.num.String()), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	var raw any
	if err := d.Decode(&raw); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}

	switch t := raw.(type) {
	case nil:
		*v = Null()
	case string:
		*v = String(t)
	case json.Number:
		*v = Number(t)
	default:
		return ErrUnsupportedValue
	}
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		tag := "!!float"
		if !strings.ContainsAny(v.num.String(), ".eE") {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.num.String()}, nil
	default:
		return nil, nil
	}
}

// Record is a client record keyed by attribute name.
type Record map[string]Value

// Get returns the value for key; absent keys read as null.
func (r Record) Get(key string) Value {
	return r[key]
}

// Clone returns a shallow copy; Values are immutable so it is a full copy.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

var (
	// ErrInvalidPayload is returned when the payload has no "data" object.
	ErrInvalidPayload = errors.New("Invalid payload: 'data' must be an object.")

	// ErrUnsupportedValue is returned for booleans, arrays and objects.
	ErrUnsupportedValue = errors.New("value must be a string, number or null")
)

// ValueError reports the attribute whose value has an unsupported type.
type ValueError struct {
	Key string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("Invalid payload: value for '%s' must be a string, number or null.", e.Key)
}

func (e *ValueError) Unwrap() error {
	return ErrUnsupportedValue
}

// DecodePayload parses a request body of the form {"data": {...}}.
func DecodePayload(body []byte) (Record, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, ErrInvalidPayload
	}

	raw, ok := envelope["data"]
	if !ok {
		return nil, ErrInvalidPayload
	}

	return DecodeData(raw)
}

// DecodeData parses the "data" object itself.
func DecodeData(raw []byte) (Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, ErrInvalidPayload
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ErrInvalidPayload
	}

	rec := make(Record, len(fields))
	for k, b := range fields {
		var v Value
		if err := v.UnmarshalJSON(b); err != nil {
			return nil, &ValueError{Key: k}
		}
		rec[k] = v
	}
	return rec, nil
}
