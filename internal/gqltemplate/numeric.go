package gqltemplate

import "strconv"

// toNumericString stringifies numeric Go kinds produced by JSON/arg
// coercion (float64, int, int32, int64) without scientific notation for
// whole-valued floats, matching how a user would expect "{{.id}}" to render
// an integer-valued argument.
func toNumericString(v any) (string, bool) {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return toNumericString(float64(x))
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}
