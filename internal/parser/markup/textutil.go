// Package markup provides small helpers for turning HTML table-cell fragments
// into plain text. It does not build a DOM; the fragments handed to it are
// already isolated by the table selector.
package markup

import "strings"

// StripTags removes markup tags from s and returns the remaining text.
//
// A tag starts at '<' immediately followed by an ASCII letter, '/', '!' or
// '?', and ends at the next '>'. A '<' that does not start a tag, or a tag
// that is never closed, is kept literally, so "1 < 2" survives intact.
//
// Removing a tag can bring a literal '<' next to text that now looks like a
// tag ("<<b>x>" → "<x>"), so stripping repeats until nothing changes. The
// result is therefore a fixed point: StripTags(StripTags(s)) == StripTags(s).
func StripTags(s string) string {
	for {
		out := stripOnce(s)
		if out == s {
			return out
		}
		s = out
	}
}

func stripOnce(s string) string {
	if strings.IndexByte(s, '<') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c == '<' && i+1 < len(s) && isTagStart(s[i+1]) {
			if end := strings.IndexByte(s[i+1:], '>'); end >= 0 {
				i += end + 2
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isTagStart(c byte) bool {
	return c == '/' || c == '!' || c == '?' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
