// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package logging

import (
	"strings"
	"unicode"
)

// maxLoggedValueLen caps user-supplied values written to log fields.
const maxLoggedValueLen = 128

// SanitizeValue prepares a client-supplied string (item id, feed id, query
// parameter) for logging. Control characters are replaced so a value cannot
// forge extra log lines in console output, and long values are truncated.
func SanitizeValue(s string) string {
	truncated := false
	if len(s) > maxLoggedValueLen {
		s = s[:maxLoggedValueLen]
		truncated = true
	}

	var b strings.Builder
	b.Grow(len(s) + 3)
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	if truncated {
		b.WriteString("...")
	}
	return b.String()
}
