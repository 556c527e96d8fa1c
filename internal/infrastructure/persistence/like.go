package persistence

import (
	"strings"

	"github.com/storepos/backend/internal/domain/catalog"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching folded text anywhere in a column
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(catalog.FoldCase(text)) + "%"
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
