package filters

import (
	"fmt"
	"reflect"
	"strings"
)

// IsEmpty reports whether v counts as "no selection". Emptiness is structural:
// compare values always carry their keys, so CompareRange{} and
// CompareSingle{Operator: "eq"} are not empty.
func IsEmpty(v Value) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case Text:
		return strings.TrimSpace(string(typed)) == ""
	case Options:
		return len(typed) == 0
	case CompareRange, CompareSingle:
		return false
	case Raw:
		return IsEmptyRaw(typed.V)
	default:
		panic(fmt.Sprintf("filters: unhandled value kind %q", v.Kind()))
	}
}

// IsEmptyRaw applies the emptiness rules to a JSON-like value: nil, blank
// strings, empty slices/arrays and maps without keys are empty.
func IsEmptyRaw(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case Value:
		return IsEmpty(typed)
	case string:
		return strings.TrimSpace(typed) == ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsEmptyRaw(rv.Elem().Interface())
	case reflect.Struct:
		return rv.NumField() == 0
	default:
		return false
	}
}
