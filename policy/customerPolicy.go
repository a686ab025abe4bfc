package policy

import (
	"fmt"
	"strings"
)

// IsApproved reports whether the trimmed name matches an approved name,
// ignoring case.
func IsApproved(name string, approved []string) bool {
	_, err := Canonicalize(name, approved)
	return err == nil
}

// Canonicalize returns the approved list's stored spelling of name, or an
// error wrapping ErrNotApproved.
func Canonicalize(name string, approved []string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed != "" {
		key := fold(trimmed)
		for _, a := range approved {
			if fold(a) == key {
				return a, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotApproved, trimmed)
}

// Suggest returns the approved names starting with the trimmed prefix,
// ignoring case, in approved-list order. An empty prefix suggests every name.
func Suggest(prefix string, approved []string) []string {
	p := fold(strings.TrimSpace(prefix))
	out := make([]string, 0, len(approved))
	for _, a := range approved {
		if strings.HasPrefix(fold(a), p) {
			out = append(out, a)
		}
	}
	return out
}
