package websearch

import (
	"net/url"
	"strings"
)

// NormalizeURL reduces a URL to the form used for de-duplication: lower-case
// host without "www.", no scheme, fragment, default port, or trailing slash.
// Query strings are kept because they often select distinct pages.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(raw), "/")
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	normalized := host + strings.TrimSuffix(u.EscapedPath(), "/")
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized
}
