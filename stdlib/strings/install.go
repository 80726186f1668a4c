package stdstrings

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/object"
)

// Install registers the methods callable on every str, e.g. `s.to_upper()`.
// The receiver is the first argument of each function.
func Install(interp *vsharp.Interpreter) {
	interp.RegisterMethods(object.STRING_OBJ, Methods())
}

// Methods returns the str method table.
func Methods() map[string]*object.Builtin {
	fns := map[string]any{
		"to_upper":    strings.ToUpper,
		"to_lower":    strings.ToLower,
		"trim":        strings.TrimSpace,
		"split":       strings.Split,
		"contains":    strings.Contains,
		"starts_with": strings.HasPrefix,
		"ends_with":   strings.HasSuffix,
		"replace":     func(s, old, new string) string { return strings.ReplaceAll(s, old, new) },
		"repeat":      strings.Repeat,
		"len":         utf8.RuneCountInString,
		"index_of":    indexOf,
		"substring":   substring,
	}
	methods := make(map[string]*object.Builtin, len(fns))
	for name, fn := range fns {
		methods[name] = object.WrapFunction("str."+name, reflect.ValueOf(fn))
	}
	return methods
}

// indexOf returns the rune index of the first occurrence of sub, or -1.
func indexOf(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}

// substring returns length runes starting at rune index start.
func substring(s string, start, length int) (string, error) {
	runes := []rune(s)
	if start < 0 || length < 0 || start > len(runes) || length > len(runes)-start {
		return "", object.Errorf(object.IndexError, "substring(%d, %d) out of range for length %d", start, length, len(runes))
	}
	return string(runes[start : start+length]), nil
}
