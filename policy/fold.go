package policy

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold maps s to its case-folded form for case-insensitive comparison.
// A Caser carries state, so a fresh one is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

func containsFold(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}
