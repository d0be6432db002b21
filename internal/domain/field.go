package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "opsboard/internal/errors"
)

// FieldKind is the closed set of column kinds a dashboard table renders and edits.
type FieldKind int

const (
	_ FieldKind = iota // zero value is invalid

	KindCheckbox
	KindDate
	KindNumber
	KindText
	KindTextarea
	KindLink
	KindSelect
	KindComputed
)

func (k FieldKind) String() string {
	switch k {
	case KindCheckbox:
		return "checkbox"
	case KindDate:
		return "date"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindTextarea:
		return "textarea"
	case KindLink:
		return "link"
	case KindSelect:
		return "select"
	case KindComputed:
		return "computed"
	default:
		return "FieldKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsToggle reports whether edits of this kind are discrete actions that are
// written through immediately instead of being debounced.
func (k FieldKind) IsToggle() bool {
	switch k {
	case KindCheckbox, KindSelect:
		return true
	case KindDate, KindNumber, KindText, KindTextarea, KindLink, KindComputed:
		return false
	default:
		return false
	}
}

// NumberUnit qualifies KindNumber and KindComputed columns.
type NumberUnit int

const (
	UnitNone NumberUnit = iota
	UnitMoney
	UnitPercent
	UnitCount
)

const DateLayout = "2006-01-02"

type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Unit     NumberUnit
	Nullable bool
	// OperatorOnly columns are financial and hidden from fulfillment partners.
	OperatorOnly bool
	// ReadOnly columns are never accepted from a user edit. They change through
	// derivation or catalog resolution.
	ReadOnly bool
	Options  []string
}

type Schema struct {
	Table  string
	fields []FieldSpec
	index  map[string]int
}

func NewSchema(table string, fields ...FieldSpec) *Schema {
	s := &Schema{
		Table:  table,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	copy(out, s.fields)
	return out
}

// EditableField returns the spec of a column a user may edit directly.
func (s *Schema) EditableField(name string) (FieldSpec, error) {
	spec, ok := s.Field(name)
	if !ok {
		return FieldSpec{}, apperrors.NewValidationError("unknown field", apperrors.ValidationDetail{
			Field:   name,
			Message: fmt.Sprintf("%s has no column %q", s.Table, name),
		})
	}
	if spec.ReadOnly || spec.Kind == KindComputed {
		return FieldSpec{}, apperrors.NewValidationError("field is not editable", apperrors.ValidationDetail{
			Field:   name,
			Message: "field is derived and cannot be edited",
		})
	}
	return spec, nil
}

// Validate rejects patches naming columns the schema does not know.
func (s *Schema) Validate(p Patch) error {
	var details []apperrors.ValidationDetail
	for _, name := range p.Fields() {
		if _, ok := s.index[name]; !ok {
			details = append(details, apperrors.ValidationDetail{
				Field:   name,
				Message: fmt.Sprintf("%s has no column %q", s.Table, name),
			})
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid patch", details...)
	}
	return nil
}

// Coerce turns raw user input into the normalized value stored for the column.
// Input that cannot be interpreted is replaced by a safe default and reported
// with a ValidationError next to the coerced value; callers keep going.
func (f FieldSpec) Coerce(raw any) (any, error) {
	switch f.Kind {
	case KindCheckbox:
		return f.coerceBool(raw)
	case KindDate:
		return f.coerceDate(raw)
	case KindNumber, KindComputed:
		return f.coerceNumber(raw)
	case KindText, KindTextarea, KindLink:
		return coerceString(raw), nil
	case KindSelect:
		return f.coerceSelect(raw)
	default:
		return nil, apperrors.NewValidationError("unsupported field kind", apperrors.ValidationDetail{
			Field:   f.Name,
			Message: f.Kind.String(),
		})
	}
}

func (f FieldSpec) invalid(msg string) *apperrors.ValidationError {
	return apperrors.NewValidationError("value coerced", apperrors.ValidationDetail{
		Field:   f.Name,
		Message: msg,
	})
}

func (f FieldSpec) coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, f.invalid("expected true or false")
		}
		return b, nil
	case nil:
		return false, nil
	default:
		return false, f.invalid("expected true or false")
	}
}

func (f FieldSpec) coerceDate(raw any) (any, error) {
	var s string
	switch v := raw.(type) {
	case nil:
		return (*time.Time)(nil), nil
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case string:
		s = strings.TrimSpace(v)
	default:
		return (*time.Time)(nil), f.invalid("expected a YYYY-MM-DD date")
	}
	if s == "" {
		return (*time.Time)(nil), nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	return (*time.Time)(nil), f.invalid("expected a YYYY-MM-DD date")
}

func (f FieldSpec) coerceNumber(raw any) (any, error) {
	d, present, err := parseDecimal(raw)
	if err != nil {
		d, present = decimal.Zero, true
		err = f.invalid("expected a number")
	}

	if f.Unit == UnitCount {
		n := int(d.IntPart())
		if !present || n < 1 {
			if err == nil && present {
				err = f.invalid("must be a positive integer")
			}
			n = 1
		}
		return n, err
	}

	if !present {
		if f.Nullable {
			return decimal.NullDecimal{}, nil
		}
		return decimal.Zero, nil
	}

	switch f.Unit {
	case UnitPercent:
		if d.LessThan(decimal.Zero) {
			d = decimal.Zero
		} else if d.GreaterThan(decimal.NewFromInt(100)) {
			d = decimal.NewFromInt(100)
		}
	case UnitMoney:
		if f.Kind != KindComputed && d.LessThan(decimal.Zero) {
			d = decimal.Zero
		}
		d = d.Round(2)
	}

	if f.Nullable {
		return decimal.NewNullDecimal(d), err
	}
	return d, err
}

func (f FieldSpec) coerceSelect(raw any) (any, error) {
	if raw == nil {
		if f.Nullable {
			return (*string)(nil), nil
		}
		return "", f.invalid("a value is required")
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return f.coerceSelect(nil)
		}
		s = *v
	default:
		s = fmt.Sprint(v)
	}
	if f.Nullable {
		if s == "" {
			return (*string)(nil), nil
		}
		return &s, nil
	}
	if len(f.Options) > 0 {
		for _, o := range f.Options {
			if o == s {
				return s, nil
			}
		}
		return f.Options[0], f.invalid("must be one of " + strings.Join(f.Options, ", "))
	}
	return s, nil
}

// parseDecimal reports present=false for empty input.
func parseDecimal(raw any) (decimal.Decimal, bool, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, false, nil
	case decimal.Decimal:
		return v, true, nil
	case decimal.NullDecimal:
		return v.Decimal, v.Valid, nil
	case float64:
		return decimal.NewFromFloat(v), true, nil
	case float32:
		return decimal.NewFromFloat32(v), true, nil
	case int:
		return decimal.NewFromInt(int64(v)), true, nil
	case int64:
		return decimal.NewFromInt(v), true, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, true, err
		}
		return d, true, nil
	default:
		return decimal.Zero, true, fmt.Errorf("unsupported numeric value %T", raw)
	}
}

func coerceString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	default:
		return fmt.Sprint(v)
	}
}
