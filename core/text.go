package core

import "strings"

// Stop words skipped when picking out the content words of a query.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Words splits text into lowercased words with surrounding punctuation trimmed.
func Words(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		cleaned := strings.ToLower(strings.Trim(field, ".,!?;:'\"-()[]{}"))
		if cleaned != "" {
			words = append(words, cleaned)
		}
	}
	return words
}

// ContentWords returns Words(text) with stop words removed.
func ContentWords(text string) []string {
	words := Words(text)
	filtered := words[:0]
	for _, word := range words {
		if !stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}
