package openai

import (
	"regexp"
	"strings"
)

// unquotedKey matches an object key that lost its opening quote, e.g.
// `, confidence":` in otherwise valid JSON.
var unquotedKey = regexp.MustCompile(`([{,]\s*)([A-Za-z][A-Za-z_]*)":`)

// cleanResponse strips code fences and any prose around the JSON object,
// then repairs keys with a missing opening quote.
func cleanResponse(s string) string {
	return repairJSON(extractObject(stripFences(s)))
}

// stripFences removes markdown code fences models sometimes wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the span from the first '{' to the last '}'.
// Text without a complete object is returned unchanged so the decoder
// reports the error.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

func repairJSON(s string) string {
	return unquotedKey.ReplaceAllString(s, `$1"$2":`)
}

// normalizeIntent lowercases the model's intent label and maps spaces and
// dashes to underscores ("Web Search" -> "web_search").
func normalizeIntent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, s)
}
