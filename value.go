package filters

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/goliatone/go-filters/internal/deepcopy"
	"github.com/mitchellh/mapstructure"
)

// ValueKind tags the concrete variant held by a Value.
type ValueKind string

const (
	ValueText          ValueKind = "text"
	ValueOptions       ValueKind = "options"
	ValueCompareRange  ValueKind = "compare_range"
	ValueCompareSingle ValueKind = "compare_single"
	ValueRaw           ValueKind = "raw"
)

// Value is the closed set of shapes a field can hold: Text, Options,
// CompareRange, CompareSingle, and Raw for hydrated payloads that do not fit
// the field kind.
type Value interface {
	Kind() ValueKind
	// Native returns the JSON-like representation (string, []any,
	// map[string]any, float64, bool or nil).
	Native() any
	isValue()
}

// Text is the value of a text field.
type Text string

func (Text) Kind() ValueKind  { return ValueText }
func (t Text) Native() any    { return string(t) }
func (Text) isValue()         {}
func (t Text) String() string { return string(t) }

// Options holds the selection tokens of an options field.
type Options []string

func (Options) Kind() ValueKind { return ValueOptions }
func (Options) isValue()        {}

func (o Options) Native() any {
	out := make([]any, len(o))
	for i, token := range o {
		out[i] = token
	}
	return out
}

// Compare operators accepted by CompareSingle.
const (
	OperatorEq  = "eq"
	OperatorNeq = "neq"
	OperatorLt  = "lt"
	OperatorLte = "lte"
	OperatorGt  = "gt"
	OperatorGte = "gte"

	DefaultOperator = OperatorEq
)

// Operators lists the compare operators in display order.
var Operators = []string{OperatorEq, OperatorNeq, OperatorLt, OperatorLte, OperatorGt, OperatorGte}

// CompareRange is a min/max compare value. Either bound may be nil; the value
// still counts as populated because it carries both keys.
type CompareRange struct {
	Min *float64 `json:"min" mapstructure:"min"`
	Max *float64 `json:"max" mapstructure:"max"`
}

func (CompareRange) Kind() ValueKind { return ValueCompareRange }
func (CompareRange) isValue()        {}

func (r CompareRange) Native() any {
	return map[string]any{
		"min": floatOrNil(r.Min),
		"max": floatOrNil(r.Max),
	}
}

// CompareSingle is an operator/value compare value.
type CompareSingle struct {
	Operator string   `json:"operator" mapstructure:"operator"`
	Value    *float64 `json:"value" mapstructure:"value"`
}

func (CompareSingle) Kind() ValueKind { return ValueCompareSingle }
func (CompareSingle) isValue()        {}

func (c CompareSingle) Native() any {
	return map[string]any{
		"operator": c.Operator,
		"value":    floatOrNil(c.Value),
	}
}

// Raw carries a hydrated value whose shape does not match its field kind.
type Raw struct {
	V any
}

func (Raw) Kind() ValueKind { return ValueRaw }
func (Raw) isValue()        {}
func (r Raw) Native() any   { return deepcopy.Clone(r.V) }

// Float returns a pointer to v, for building compare values.
func Float(v float64) *float64 {
	return &v
}

// Range builds a CompareRange with both bounds set.
func Range(minValue, maxValue float64) CompareRange {
	return CompareRange{Min: Float(minValue), Max: Float(maxValue)}
}

// Single builds a CompareSingle.
func Single(operator string, value float64) CompareSingle {
	if operator == "" {
		operator = DefaultOperator
	}
	return CompareSingle{Operator: operator, Value: Float(value)}
}

// CoerceValue maps a JSON-like value onto the variant matching kind. Values
// that do not fit are preserved as Raw; nil stays nil. Text fields take
// lists and objects as their compact JSON text, and a blank scalar for an
// options field is the empty selection.
func CoerceValue(kind FieldKind, raw any) Value {
	if raw == nil {
		return nil
	}
	if v, ok := raw.(Value); ok {
		return cloneValue(v)
	}

	switch kind {
	case KindText:
		if s, ok := raw.(string); ok {
			return Text(s)
		}
		if s, ok := Serialize(raw); ok {
			return Text(s)
		}
	case KindOptions:
		if tokens, ok := optionTokens(raw); ok {
			return tokens
		}
	case KindCompare:
		if m, ok := raw.(map[string]any); ok {
			if v, ok := decodeCompare(m); ok {
				return v
			}
		}
	}
	return Raw{V: deepcopy.Clone(raw)}
}

func optionTokens(raw any) (Options, bool) {
	switch typed := raw.(type) {
	case []string:
		return Options(slices.Clone(typed)), true
	case []any:
		tokens := make(Options, 0, len(typed))
		for _, item := range typed {
			if !isPrimitive(item) {
				return nil, false
			}
			token, _ := Serialize(item)
			tokens = append(tokens, token)
		}
		return tokens, true
	default:
		if isPrimitive(raw) {
			token, _ := Serialize(raw)
			if strings.TrimSpace(token) == "" {
				return Options{}, true
			}
			return Options{token}, true
		}
	}
	return nil, false
}

func decodeCompare(m map[string]any) (Value, bool) {
	_, hasOperator := m["operator"]
	_, hasMin := m["min"]
	_, hasMax := m["max"]

	var target any
	var single CompareSingle
	var rng CompareRange
	switch {
	case hasOperator:
		target = &single
	case hasMin || hasMax:
		target = &rng
	default:
		return nil, false
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, false
	}
	if err := decoder.Decode(m); err != nil {
		return nil, false
	}
	if hasOperator {
		if single.Operator == "" {
			single.Operator = DefaultOperator
		}
		return single, true
	}
	return rng, true
}

// Equal reports whether a and b hold the same value. Two empty values are
// equal regardless of their variant.
func Equal(a, b Value) bool {
	if IsEmpty(a) && IsEmpty(b) {
		return true
	}
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Text:
		return av == b.(Text)
	case Options:
		return slices.Equal(av, b.(Options))
	case CompareRange:
		bv := b.(CompareRange)
		return floatEqual(av.Min, bv.Min) && floatEqual(av.Max, bv.Max)
	case CompareSingle:
		bv := b.(CompareSingle)
		return av.Operator == bv.Operator && floatEqual(av.Value, bv.Value)
	case Raw:
		return reflect.DeepEqual(av.V, b.(Raw).V)
	default:
		panic(fmt.Sprintf("filters: unhandled value kind %q", a.Kind()))
	}
}

// DefaultValue returns the value a widget starts from for def. Text fields
// start absent.
func DefaultValue(def FieldDefinition) Value {
	switch def.Kind {
	case KindOptions:
		return Options{}
	case KindCompare:
		if def.CompareType == CompareTypeSingle {
			return CompareSingle{Operator: DefaultOperator}
		}
		return CompareRange{}
	default:
		return nil
	}
}

func cloneValue(v Value) Value {
	switch typed := v.(type) {
	case nil:
		return nil
	case Text:
		return typed
	case Options:
		if typed == nil {
			return Options(nil)
		}
		return slices.Clone(typed)
	case CompareRange:
		return CompareRange{Min: cloneFloat(typed.Min), Max: cloneFloat(typed.Max)}
	case CompareSingle:
		return CompareSingle{Operator: typed.Operator, Value: cloneFloat(typed.Value)}
	case Raw:
		return Raw{V: deepcopy.Clone(typed.V)}
	default:
		panic(fmt.Sprintf("filters: unhandled value kind %q", v.Kind()))
	}
}

func nativeOf(v Value) any {
	if v == nil {
		return nil
	}
	return v.Native()
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, bool, float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}
