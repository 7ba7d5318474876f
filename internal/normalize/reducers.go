package normalize

import (
	"strconv"
	"strings"
)

// Count reduces count-like fields (bombs, lockpicks, detained, ammo,
// occurrences): numbers and numeric strings as-is, everything else zero.
func Count(v Value) float64 {
	return coerce(v)
}

// Weapons counts seized weapons. A list counts its items, a string holding a
// json array counts that array, numbers and numeric strings are taken as the
// count.
func Weapons(v Value) float64 {
	switch v.Kind {
	case KindList:
		return float64(len(v.List))
	case KindNumber:
		return v.Num
	case KindString:
		s := strings.TrimSpace(v.Str)
		if strings.HasPrefix(s, "[") {
			if inner := DecodeString(s); inner.Kind == KindList {
				return float64(len(inner.List))
			}
			return 0
		}
		return parseStrict(s)
	default:
		return 0
	}
}

// Drugs sums seized drug quantities.
//
//	number           → itself
//	list of objects  → Σ quantity (falling back to qtd)
//	object           → Σ numeric values
//	string           → decoded as json first, else its leading float
func Drugs(v Value) float64 {
	return drugs(v, true)
}

func drugs(v Value, decodeStrings bool) float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindList:
		var sum float64
		for _, item := range v.List {
			sum += quantity(item)
		}
		return sum
	case KindKeyed:
		var sum float64
		for _, item := range v.Items {
			sum += coerce(item)
		}
		return sum
	case KindString:
		if decodeStrings {
			if inner := DecodeString(v.Str); inner.Present() {
				return drugs(inner, false)
			}
		}
		return parseLeading(v.Str)
	default:
		return 0
	}
}

func quantity(item Value) float64 {
	if q, ok := item.Field("quantity"); ok {
		if n := coerce(q); n != 0 {
			return n
		}
	}
	if q, ok := item.Field("qtd"); ok {
		return coerce(q)
	}
	return 0
}

// Money parses marked money. Strings are read as pt-BR currency: everything
// but digits, separators and minus is stripped, dots are thousands separators
// and the comma is the decimal mark ("R$ 1.234,56" → 1234.56).
func Money(v Value) float64 {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return parseCurrency(v.Str)
	default:
		return 0
	}
}

func parseCurrency(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '-', r == ',':
			b.WriteRune(r)
		case r == '.':
			// thousands separator
		}
	}
	clean := b.String()
	if strings.Count(clean, ",") > 1 {
		return 0
	}
	return parseStrict(strings.Replace(clean, ",", ".", 1))
}

// Member a roster entry resolved from a report or shift.
type Member struct {
	ID   string
	Name string
	Rank string
	// Role is the entry's role, or its slot key for slot mappings.
	Role string
}

// Members flattens a roster that is either a list of entries or a slot →
// entry mapping. Entries without a resolvable id (id, then user_id) are
// dropped. Mappings keep document order.
func Members(v Value) []Member {
	switch v.Kind {
	case KindList:
		out := make([]Member, 0, len(v.List))
		for _, item := range v.List {
			if m, ok := member(item, ""); ok {
				out = append(out, m)
			}
		}
		return out
	case KindKeyed:
		out := make([]Member, 0, len(v.Items))
		for i, item := range v.Items {
			if m, ok := member(item, v.Keys[i]); ok {
				out = append(out, m)
			}
		}
		return out
	case KindString:
		if inner := DecodeString(v.Str); inner.Kind == KindList || inner.Kind == KindKeyed {
			return Members(inner)
		}
		return nil
	default:
		return nil
	}
}

func member(item Value, slot string) (Member, bool) {
	if item.Kind != KindKeyed {
		return Member{}, false
	}
	id := identifier(item, "id")
	if id == "" {
		id = identifier(item, "user_id")
	}
	if id == "" {
		return Member{}, false
	}
	m := Member{
		ID:   id,
		Name: text(item, "name"),
		Rank: text(item, "rank"),
		Role: text(item, "role"),
	}
	if m.Name == "" {
		m.Name = text(item, "full_name")
	}
	if m.Role == "" {
		m.Role = slot
	}
	return m, true
}

func identifier(item Value, key string) string {
	f, ok := item.Field(key)
	if !ok {
		return ""
	}
	switch f.Kind {
	case KindString:
		return strings.TrimSpace(f.Str)
	case KindNumber:
		if f.Num == 0 {
			return ""
		}
		return strconv.FormatFloat(f.Num, 'f', -1, 64)
	default:
		return ""
	}
}

func text(item Value, key string) string {
	f, ok := item.Field(key)
	if !ok || f.Kind != KindString {
		return ""
	}
	return strings.TrimSpace(f.Str)
}
