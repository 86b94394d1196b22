package ircf

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	codeBlockRegex        = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_+-]*\n)?(.*?)```")
	inlineCodeRegex       = regexp.MustCompile("`[^`]+`")
	escapedRegex          = regexp.MustCompile(`\\([*_~|>\\` + "`" + `])`)
	boldRegex             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	underlineRegex        = regexp.MustCompile(`__(.+?)__`)
	strikethroughRegex    = regexp.MustCompile(`~~(.+?)~~`)
	spoilerRegex          = regexp.MustCompile(`\|\|(.+?)\|\|`)
	italicStarRegex       = regexp.MustCompile(`\*([^*\s](?:[^*]*[^*\s])?)\*`)
	italicUnderscoreRegex = regexp.MustCompile(`(^|[^\w])_([^_\s](?:[^_]*[^_\s])?)_($|[^\w])`)
	multiQuoteRegex       = regexp.MustCompile(`(?m)^>>> `)
	placeholderRegex      = regexp.MustCompile("\x00(\\d+)\x00")
)

// MarkdownToIRC converts Discord markdown into IRC control codes.
// Code spans and escaped characters are passed through untouched.
// Line breaks are kept; see FlattenNewlines.
func MarkdownToIRC(text string) string {
	var saved []string
	save := func(s string) string {
		saved = append(saved, s)
		return fmt.Sprintf("\x00%d\x00", len(saved)-1)
	}

	text = codeBlockRegex.ReplaceAllStringFunc(text, func(block string) string {
		return save(codeBlockRegex.FindStringSubmatch(block)[1])
	})
	text = inlineCodeRegex.ReplaceAllStringFunc(text, save)
	text = escapedRegex.ReplaceAllStringFunc(text, func(esc string) string {
		return save(esc[1:])
	})

	text = boldRegex.ReplaceAllString(text, "\x02${1}\x02")
	text = underlineRegex.ReplaceAllString(text, "\x1f${1}\x1f")
	text = strikethroughRegex.ReplaceAllString(text, "\x1e${1}\x1e")
	text = spoilerRegex.ReplaceAllString(text, "\x0301,01${1}\x03")
	text = italicStarRegex.ReplaceAllString(text, "\x1d${1}\x1d")

	// Adjacent matches share their separator, so a second pass picks up the ones skipped.
	for i := 0; i < 2; i++ {
		text = italicUnderscoreRegex.ReplaceAllString(text, "${1}\x1d${2}\x1d${3}")
	}

	text = multiQuoteRegex.ReplaceAllString(text, "> ")

	return placeholderRegex.ReplaceAllStringFunc(text, func(p string) string {
		i, err := strconv.Atoi(placeholderRegex.FindStringSubmatch(p)[1])
		if err != nil || i >= len(saved) {
			return p
		}
		return saved[i]
	})
}
