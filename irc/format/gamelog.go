package ircf

import (
	"fmt"
	"regexp"
	"strings"
)

// ColorMatch colours every match of Regex. When the regex has a capture
// group only the first group is coloured.
type ColorMatch struct {
	Regex *regexp.Regexp
	Color int
}

// ColorMatches are applied in order.
type ColorMatches []ColorMatch

// GameLog maps an exact author nickname to the matches applied to their messages.
type GameLog map[string]ColorMatches

// Colorize inserts colour codes around every match.
func (cm ColorMatches) Colorize(text string) string {
	for _, m := range cm {
		text = colorize(m.Regex, m.Color, text)
	}
	return text
}

func colorize(re *regexp.Regexp, code int, text string) string {
	var b strings.Builder
	last := 0
	for _, match := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := match[0], match[1]
		if len(match) >= 4 && match[2] >= 0 {
			start, end = match[2], match[3]
		}
		if start == end || start < last {
			continue
		}
		b.WriteString(text[last:start])
		fmt.Fprintf(&b, "%c%02d%s%c", CharColor, code, text[start:end], CharColor)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
