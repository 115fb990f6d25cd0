package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKey prepares an aggregate key for storage and exact matching.
// Only surrounding whitespace is removed; width, case and inner spacing are
// kept so that distinct spellings stay distinct keys.
func NormalizeKey(key string) string {
	return strings.TrimSpace(key)
}

// GroupKey folds a key to find spellings that look alike. It is used for
// reporting only; keys that differ after NormalizeKey are never merged.
//   - NFKC normalization (full-width ASCII and half-width kana are unified)
//   - trims leading/trailing whitespace
//   - compresses runs of whitespace (including the ideographic space) into one space
func GroupKey(key string) string {
	key = norm.NFKC.String(key)
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(key))
	prevSpace := false
	for _, r := range key {
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteByte(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
