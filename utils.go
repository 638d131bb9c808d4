package mayray

import (
	"net/url"
	"strings"
)

// ParseQuery returns the key/value pairs of the query string in resource,
// e.g. "/list?dir=demo&pass=x" yields {"dir": "demo", "pass": "x"}.
//
// Pairs without '=' are skipped. Values are percent-decoded when they are
// valid escapes and kept verbatim otherwise. When a key occurs twice the last
// value wins.
func ParseQuery(resource string) map[string]string {
	params := make(map[string]string)

	_, query, found := strings.Cut(resource, "?")
	if !found || query == "" {
		return params
	}

	for _, pair := range strings.Split(query, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		params[unescape(key)] = unescape(value)
	}

	return params
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}
