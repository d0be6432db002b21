package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Patch is a partial update keyed by column name. Values are the normalized
// types produced by FieldSpec.Coerce.
type Patch map[string]any

func (p Patch) Fields() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new patch holding p overlaid by other.
func (p Patch) Merge(other Patch) Patch {
	out := make(Patch, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func asString(v any) string {
	return coerceString(v)
}

func asStringPtr(v any) *string {
	switch s := v.(type) {
	case *string:
		if s == nil {
			return nil
		}
		c := *s
		return &c
	case string:
		if s == "" {
			return nil
		}
		return &s
	default:
		return nil
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case decimal.Decimal:
		return int(n.IntPart())
	default:
		return 0
	}
}

func asDecimal(v any) decimal.Decimal {
	switch d := v.(type) {
	case decimal.Decimal:
		return d
	case decimal.NullDecimal:
		return d.Decimal
	default:
		return decimal.Zero
	}
}

func asNullDecimal(v any) decimal.NullDecimal {
	switch d := v.(type) {
	case decimal.NullDecimal:
		return d
	case decimal.Decimal:
		return decimal.NewNullDecimal(d)
	default:
		return decimal.NullDecimal{}
	}
}

func asTimePtr(v any) *time.Time {
	switch t := v.(type) {
	case *time.Time:
		return t
	case time.Time:
		return &t
	default:
		return nil
	}
}
