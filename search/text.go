package search

import "strings"

// Stop words dropped when deriving keywords from a query
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "what": true, "which": true, "who": true,
	"how": true, "skills": true, "jobs": true, "job": true, "role": true, "roles": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// keywordsFromQuery derives unique boost keywords from the query text.
func keywordsFromQuery(query string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, w := range tokenizeAndFilter(query) {
		if !seen[w] {
			seen[w] = true
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// countKeywordMatches counts keywords contained in text, ignoring case.
// Blank keywords never match.
func countKeywordMatches(text string, keywords []string) int {
	lower := strings.ToLower(text)
	matched := 0
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lower, k) {
			matched++
		}
	}
	return matched
}
