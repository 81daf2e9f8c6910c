package websearch

import (
	"net/url"
	"strings"
)

// SafetyFilter flags results that a moderate safe-search setting would hide.
type SafetyFilter struct {
	keywords []string
	domains  []string
}

var moderateKeywords = []string{
	"porn", "xxx", "nsfw", "nude", "nudes", "hentai", "escort", "camgirl",
	"gore", "beheading", "torrent crack", "warez", "keygen",
}

var moderateDomains = []string{
	"pornhub.com", "xvideos.com", "xnxx.com", "xhamster.com", "onlyfans.com",
	"redtube.com", "youporn.com", "thepiratebay.org", "1337x.to",
}

// NewModerateFilter returns the default filter.
func NewModerateFilter() *SafetyFilter {
	return &SafetyFilter{keywords: moderateKeywords, domains: moderateDomains}
}

// NewSafetyFilter builds a filter from custom keyword and domain lists.
func NewSafetyFilter(keywords, domains []string) *SafetyFilter {
	f := &SafetyFilter{}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			f.domains = append(f.domains, d)
		}
	}
	return f
}

// Unsafe reports whether r matches a blocked domain or keyword.
func (f *SafetyFilter) Unsafe(r Result) bool {
	if f == nil {
		return false
	}

	if host := hostOf(r.URL); host != "" {
		for _, d := range f.domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return true
			}
		}
	}

	text := strings.ToLower(r.Title + " " + r.Snippet)
	for _, k := range f.keywords {
		if containsWord(text, k) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// containsWord matches phrase on word boundaries so "gore" doesn't match "Gorey".
func containsWord(text, phrase string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
