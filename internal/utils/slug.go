package utils

import "strings"

// Slugify reduces a work title to a filename-safe slug: lowercase ASCII
// letters and digits, with every other run of characters collapsed into a
// single hyphen. Titles with no usable characters slug to the empty string.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
