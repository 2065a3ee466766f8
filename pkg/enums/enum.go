// Package enums defines the string-backed enumerations stored in the
// database and sent over the wire.
package enums

import (
	"fmt"
	"slices"
)

func member[T ~string](set []T, v T) bool {
	return slices.Contains(set, v)
}

// parse matches raw exactly against set; callers normalize first when the
// enum accepts loose input.
func parse[T ~string](set []T, raw, kind string) (T, error) {
	if i := slices.Index(set, T(raw)); i >= 0 {
		return set[i], nil
	}
	var zero T
	return zero, parseError(kind, raw)
}

// parseError reports the caller's original input rather than the
// normalized form.
func parseError(kind, raw string) error {
	return fmt.Errorf("invalid %s %q", kind, raw)
}
