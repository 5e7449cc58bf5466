// Package markup provides the free-function HTML utilities every
// handler shares: escaping user-supplied text at emission, and
// stripping markup from AI-sourced text before it is re-escaped. Per
// the handler contract, these are plain functions rather than methods
// on some shared base handler.
package markup

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var brPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// stripPolicy removes every tag, leaving only the element text behind.
var stripPolicy = bluemonday.StrictPolicy()

// EscapeHTML escapes s so it can be embedded as an HTML text node or
// attribute value without introducing markup. Every handler must call
// this on user-supplied text immediately before storing it into a
// fragment's Params.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// StripMarkup removes all HTML tags from s, collapsing <br> (in any of
// its common forms) to a single space first so stripping doesn't run
// adjacent words together. The result is plain text, unescaped, ready
// for a handler to re-escape with EscapeHTML before emission. This is
// applied to every string field of a response from the AI Generation
// Protocol before the handler's own invariants are enforced.
func StripMarkup(s string) string {
	stripped := brPattern.ReplaceAllString(s, " ")
	stripped = stripPolicy.Sanitize(stripped)
	stripped = html.UnescapeString(stripped)
	return strings.TrimSpace(stripped)
}
