// Package normalize turns loosely typed stored payload fields into canonical
// numbers.
//
// Every stored field is decoded exactly once into a tagged Value; the reducers
// in this package then work on that variant and never fail: anything they do
// not understand counts as zero.
package normalize

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"
)

// Kind tags the shape a stored field was found in.
type Kind uint8

const (
	// KindAbsent missing column, json null or undecodable input
	KindAbsent Kind = iota
	// KindNumber json number (booleans are coerced to 1 / 0)
	KindNumber
	// KindList json array
	KindList
	// KindKeyed json object, keys kept in document order
	KindKeyed
	// KindString json string, possibly holding an encoded document
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindKeyed:
		return "keyed"
	case KindString:
		return "string"
	default:
		return "absent"
	}
}

// Value a decoded field.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	List []Value
	// Keys and Items are parallel; Items[i] is the value under Keys[i].
	Keys  []string
	Items []Value
}

// Number builds a KindNumber value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// String builds a KindString value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Present reports whether the field carried anything at all.
func (v Value) Present() bool { return v.Kind != KindAbsent }

// Field returns the value stored under key for keyed values.
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != KindKeyed {
		return Value{}, false
	}
	for i, k := range v.Keys {
		if k == key {
			return v.Items[i], true
		}
	}
	return Value{}, false
}

// Decode parses raw json into a Value. Malformed input decodes as absent.
func Decode(raw []byte) Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Value{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}
	}
	return v
}

// DecodeString parses a json document carried inside a string column.
func DecodeString(s string) Value {
	return Decode([]byte(s))
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			v := Value{Kind: KindList}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				v.List = append(v.List, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return v, nil
		case '{':
			v := Value{Kind: KindKeyed}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, io.ErrUnexpectedEOF
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				v.Keys = append(v.Keys, key)
				v.Items = append(v.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return v, nil
		}
		return Value{}, io.ErrUnexpectedEOF
	case json.Number:
		f, err := t.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			// out of range: keep the slot, drop the number
			return Number(0), nil
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case bool:
		if t {
			return Number(1), nil
		}
		return Number(0), nil
	default:
		return Value{}, nil
	}
}

// coerce applies numeric coercion: numbers as-is, strings only when the whole
// trimmed string is a finite number. An empty string is zero.
func coerce(v Value) float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return parseStrict(v.Str)
	default:
		return 0
	}
}

func parseStrict(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseLeading reads the longest numeric prefix ("12.5g" → 12.5).
func parseLeading(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for expDigits < len(s) && s[expDigits] >= '0' && s[expDigits] <= '9' {
			expDigits++
		}
		if expDigits > exp {
			end = expDigits
		}
	}
	return parseStrict(s[:end])
}
