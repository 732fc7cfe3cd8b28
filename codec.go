package filters

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Serialize turns v into its query-string form. Strings, numbers and booleans
// use their plain text form; everything else is compact JSON. The boolean is
// false when v is nil or cannot be encoded, in which case callers drop the
// field rather than fail.
func Serialize(v any) (string, bool) {
	switch typed := v.(type) {
	case nil:
		return "", false
	case Text:
		return string(typed), true
	case Raw:
		return Serialize(typed.V)
	case Value:
		data, err := marshalValue(typed)
		if err != nil {
			return "", false
		}
		return string(data), true
	case string:
		return typed, true
	case bool:
		return strconv.FormatBool(typed), true
	case float64:
		return formatNumber(typed), true
	case float32:
		return formatNumber(float64(typed)), true
	case int:
		return strconv.FormatInt(int64(typed), 10), true
	case int8:
		return strconv.FormatInt(int64(typed), 10), true
	case int16:
		return strconv.FormatInt(int64(typed), 10), true
	case int32:
		return strconv.FormatInt(int64(typed), 10), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case uint:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint8:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint16:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint32:
		return strconv.FormatUint(uint64(typed), 10), true
	case uint64:
		return strconv.FormatUint(typed, 10), true
	case json.Number:
		return typed.String(), true
	}

	data, err := marshalJSON(v)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Deserialize reverses Serialize on a best-effort basis. Non-string input is
// returned unchanged. Strings are trimmed and tried, in order, as JSON
// (object or array text), the literals true/false, and a number in the forms
// a browser's Number() accepts (decimal with optional exponent, 0x/0o/0b
// integers, Infinity); anything else comes back as the trimmed string. "5"
// therefore always becomes the number 5 and "1e400" becomes +Inf.
func Deserialize(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	s = strings.TrimSpace(s)

	if looksLikeJSON(s) {
		if !gjson.Valid(s) {
			return s
		}
		return gjson.Parse(s).Value()
	}

	switch s {
	case "true":
		return true
	case "false":
		return false
	case "":
		return s
	}

	if n, ok := parseNumber(s); ok {
		return n
	}
	return s
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func parseNumber(s string) (float64, bool) {
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, ok := new(big.Int).SetString(s[2:], base)
			if !ok || n.Sign() < 0 || strings.ContainsAny(s[2:], "+-_") {
				return 0, false
			}
			f, _ := new(big.Float).SetInt(n).Float64()
			return f, true
		}
	}
	if !decimalNumber.MatchString(s) {
		return 0, false
	}
	// Out-of-range input saturates to ±Inf or 0 and is still a number.
	n, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

func formatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// marshalValue encodes typed values keeping the field order of their wire
// form ({"min","max"} and {"operator","value"}).
func marshalValue(v Value) ([]byte, error) {
	switch typed := v.(type) {
	case Text:
		return marshalJSON(string(typed))
	case Options:
		if typed == nil {
			return marshalJSON([]string{})
		}
		return marshalJSON([]string(typed))
	case CompareRange, CompareSingle:
		return marshalJSON(typed)
	case Raw:
		return marshalJSON(typed.V)
	default:
		return marshalJSON(v.Native())
	}
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
