package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and strips all whitespace so that
// differently formatted labels compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// CollapseWhitespace trims the string and replaces every inner run of
// whitespace with a single space.
func CollapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ParseCount parses a displayed count like "12,345" into an integer.
// ok is false for empty, non-numeric and negative input.
func ParseCount(s string) (n int64, ok bool) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

var partialWordRegex = regexp.MustCompile(`\s+?(\S+)?$`)

// TrimBlurb shortens s to at most limit runes. When it has to cut, the
// trailing partial word is dropped and "..." is appended.
func TrimBlurb(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	cut = partialWordRegex.ReplaceAllString(cut, "")
	return cut + "..."
}
