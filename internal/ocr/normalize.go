package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, trims trailing spaces on lines and collapses runs of
// blank lines into one, so paragraph breaks survive for chunking.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return s
}
