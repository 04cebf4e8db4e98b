package search

import "strings"

const maxSuggestions = 10

// Tokens that mark a query as construction/roofing related.
var constructionIndicators = map[string]struct{}{
	"roof":         {},
	"construction": {},
	"building":     {},
	"contractor":   {},
	"repair":       {},
	"install":      {},
	"material":     {},
	"latvia":       {},
	"riga":         {},
}

// Expansion terms appended to related queries when not already present.
var constructionTerms = []string{
	"Latvia", "Riga", "contractor", "installation", "repair", "materials", "cost",
}

// Suggestions proposes up to 10 refinements for a query: quoted long tokens,
// quoted adjacent bigrams, and construction-vocabulary expansions when the
// query looks related. Deterministic for a given query.
func Suggestions(query string) []string {
	suggestions := []string{}
	words := strings.Fields(strings.ToLower(query))

	if len(words) > 1 {
		for _, word := range words {
			if len(word) > 3 {
				suggestions = append(suggestions, `"`+word+`"`)
			}
		}
		for i := 0; i < len(words)-1; i++ {
			suggestions = append(suggestions, `"`+words[i]+" "+words[i+1]+`"`)
		}
	}

	related := false
	for _, word := range words {
		if _, ok := constructionIndicators[word]; ok {
			related = true
			break
		}
	}
	if related {
		lowerQuery := strings.ToLower(query)
		for _, term := range constructionTerms {
			if !strings.Contains(lowerQuery, strings.ToLower(term)) {
				suggestions = append(suggestions, query+" "+term)
			}
		}
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}
