package adapters

import "strings"

// isXPath reports whether selector is an XPath expression rather than a CSS selector.
func isXPath(selector string) bool {
	s := strings.TrimSpace(selector)
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") || strings.HasPrefix(s, "(")
}
