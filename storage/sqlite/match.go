package sqlite

import "strings"

// Stop words dropped from lexical queries before they reach FTS5.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "shall": true,
}

// ftsMatchExpr converts a natural language query into an FTS5 MATCH
// expression. Words are lowercased, stripped of punctuation, filtered for
// stop words, quoted so FTS5 operators inside them stay literal, and joined
// with OR for broad recall. Returns "" when nothing searchable remains.
func ftsMatchExpr(query string) string {
	words := strings.Fields(query)
	terms := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}*"))
		if cleaned == "" || stopWords[cleaned] {
			continue
		}
		cleaned = strings.ReplaceAll(cleaned, `"`, `""`)
		terms = append(terms, `"`+cleaned+`"`)
	}

	return strings.Join(terms, " OR ")
}
