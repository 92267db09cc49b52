package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var errNoJSONObject = errors.New("no JSON object found")

// ExtractJSONObject returns the first balanced top-level {...} block of raw.
// Surrounding prose and code fences are ignored; braces inside JSON strings do
// not count towards nesting.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return "", errNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unterminated JSON object starting at offset %d", start)
}

// DecodeObject locates the JSON object in a model response and decodes it into
// out, a pointer to a struct with json tags. Field values are coerced to the
// declared Go types: unparsable numbers become 0, non-arrays become empty
// slices and scalars become trimmed strings. Any failure is reported as
// *MalformedResponseError.
func DecodeObject(raw string, out any) error {
	object, err := ExtractJSONObject(raw)
	if err != nil {
		return &MalformedResponseError{Raw: raw, Err: err}
	}

	dec := json.NewDecoder(strings.NewReader(object))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return &MalformedResponseError{Raw: raw, Err: fmt.Errorf("decode json: %w", err)}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: coerceHook,
		Result:     out,
		TagName:    "json",
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return &MalformedResponseError{Raw: raw, Err: fmt.Errorf("coerce fields: %w", err)}
	}

	return nil
}

func coerceHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f := coerceFloat(data)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return int64(0), nil
		}
		return int64(math.Round(f)), nil
	case reflect.Float32, reflect.Float64:
		f := coerceFloat(data)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return float64(0), nil
		}
		return f, nil
	case reflect.Bool:
		return coerceBool(data), nil
	case reflect.String:
		return coerceString(data), nil
	case reflect.Slice:
		if _, ok := data.([]any); !ok {
			return []any{}, nil
		}
	}
	return data, nil
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case json.Number:
		return parseFloat(val.String())
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		return parseFloat(val)
	default:
		return math.NaN()
	}
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case json.Number:
		f := parseFloat(val.String())
		return !math.IsNaN(f) && f != 0
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
