package agent

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/colloquy/core"
	"github.com/poiesic/colloquy/search"
	"github.com/poiesic/colloquy/storage"
)

var (
	pagePattern = regexp.MustCompile(`(?i)\b(?:page|pg\.?|p\.)\s*(\d{1,5})\b`)

	// Phrases that may name a document, in the order they are tried.
	documentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:paper|document|file|pdf)\s+["']([^"']+)["']`),
		regexp.MustCompile(`["“]([^"”]{3,})["”]`),
		regexp.MustCompile(`(?i)\b(?:in|from)\s+(?:the\s+)?([A-Za-z0-9][A-Za-z0-9 ._\-]*?(?:\s*[(\[]\d{4}[)\]])?)(?:\s+(?:paper|document|pdf|file)\b)?\s*(?:[?!,;]|\.(?:\s|$)|\bpage\b|\bon\b|\babout\b|$)`),
		regexp.MustCompile(`\b([A-Z][A-Za-z]+\s+et\s+al\.?(?:\s*[(\[]?\d{4}[)\]]?)?)`),
	}

	yearPattern = regexp.MustCompile(`[(\[]?\b(?:19|20)\d{2}\b[)\]]?`)

	// Words that describe a reference rather than name it.
	referenceWords = []string{"et", "al", "paper", "document", "pdf", "file"}
)

// DocumentCatalog lists the documents a name filter may resolve to.
type DocumentCatalog interface {
	FindDocumentByName(ctx context.Context, name string) (*core.Document, error)
	ListDocuments(ctx context.Context) ([]*core.Document, error)
}

var _ DocumentCatalog = (storage.DocumentRepository)(nil)

// extractPage returns the page number named by "page N", or 0.
func extractPage(query string) int {
	m := pagePattern.FindStringSubmatch(query)
	if m == nil {
		return 0
	}
	page, err := strconv.Atoi(m[1])
	if err != nil || page < 1 {
		return 0
	}
	return page
}

// documentCandidates returns the phrases in query that may name a document.
func documentCandidates(query string) []string {
	var candidates []string
	for _, pattern := range documentPatterns {
		for _, m := range pattern.FindAllStringSubmatch(query, -1) {
			c := strings.TrimSpace(m[1])
			if c != "" && !slices.Contains(candidates, c) {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates
}

// normalizeDocumentName lowercases name, drops its extension and any year
// marker, and reduces punctuation to single spaces.
func normalizeDocumentName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = yearPattern.ReplaceAllString(name, " ")
	name = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, strings.ToLower(name))
	return core.NormalizeWhitespace(name)
}

// nameMatches reports whether every content word of candidate appears in
// the document name.
func nameMatches(candidate, document string) bool {
	terms := slices.DeleteFunc(core.ContentWords(normalizeDocumentName(candidate)), func(term string) bool {
		return slices.Contains(referenceWords, term)
	})
	if len(terms) == 0 {
		return false
	}
	words := strings.Fields(normalizeDocumentName(document))
	for _, term := range terms {
		if !slices.Contains(words, term) {
			return false
		}
	}
	return true
}

// resolveFilter builds a search filter from query. A document filter is only
// set when a candidate phrase resolves to a document in the catalog.
func resolveFilter(ctx context.Context, query string, catalog DocumentCatalog, logger *slog.Logger) search.Filter {
	filter := search.Filter{Page: extractPage(query)}
	if catalog == nil {
		return filter
	}

	candidates := documentCandidates(query)
	if len(candidates) == 0 {
		return filter
	}

	for _, candidate := range candidates {
		doc, err := catalog.FindDocumentByName(ctx, candidate)
		if err == nil {
			filter.DocumentName = doc.Name
			return filter
		}
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("error looking up document", "name", candidate, "err", err)
			return filter
		}
	}

	docs, err := catalog.ListDocuments(ctx)
	if err != nil {
		logger.Warn("error listing documents", "err", err)
		return filter
	}
	for _, candidate := range candidates {
		for _, doc := range docs {
			if nameMatches(candidate, doc.Name) {
				filter.DocumentName = doc.Name
				return filter
			}
		}
	}
	return filter
}
