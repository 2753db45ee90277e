package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

func init() {
	// Force links to open in new tab
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// SanitizeHTML strips anything unsafe from client-rendered comment HTML.
func SanitizeHTML(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(source))
}
