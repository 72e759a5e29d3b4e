package annotation

import (
	"regexp"
	"strings"
)

var (
	newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	continuationRe  = regexp.MustCompile(`\n\s+\* ?`)
)

// Normalize strips comment delimiters and continuation markup from raw doc
// comment text.
//
// Every "/**" and "*/" is removed wherever it occurs, line endings are unified
// to "\n", and a newline followed by indentation, a "*" continuation marker and
// at most one space collapses to a bare newline. The transform is repeated
// until the text is stable, so normalizing twice equals normalizing once.
func Normalize(raw string) string {
	text := raw
	for {
		next := normalizeOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func normalizeOnce(text string) string {
	text = strings.ReplaceAll(text, "/**", "")
	text = strings.ReplaceAll(text, "*/", "")
	text = newlineReplacer.Replace(text)
	return continuationRe.ReplaceAllString(text, "\n")
}
