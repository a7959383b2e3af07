package task

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FormatArgs renders args the way Python's repr(list) would, so worker
// logs read the same regardless of which side of the port they came
// from: "[]", "[1, 'two']".
func FormatArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = reprValue(a)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatKwargs renders kwargs the way Python's repr(dict) would. Go
// maps have no stable iteration order, so keys are sorted
// lexicographically for determinism; this matches the common case of
// single-key kwargs exactly and is merely a display convention for
// larger ones.
func FormatKwargs(kwargs map[string]interface{}) string {
	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", reprString(k), reprValue(kwargs[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func reprValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return reprString(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case []interface{}:
		return FormatArgs(val)
	case map[string]interface{}:
		return FormatKwargs(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func reprString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString("\\'")
		case '\\':
			b.WriteString("\\\\")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
