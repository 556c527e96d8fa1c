package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldCase returns the Unicode case-folded form used for catalog search.
// A new Caser is built per call since Caser is not safe for concurrent use.
func FoldCase(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
