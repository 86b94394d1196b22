// Package ircf converts between IRC control-code formatting and Discord markdown.
package ircf

import (
	"regexp"
	"strconv"
	"strings"
)

// This file is based on https://www.npmjs.com/package/irc-formatting 1.0.0-rc3
//
// The main difference is that the regex follows Daniel Oaks' IRC Formatting specification.

// Chars includes all the codes defined in https://modern.ircdocs.horse/formatting.html
const (
	CharBold          rune = '\x02'
	CharItalics       rune = '\x1D'
	CharUnderline     rune = '\x1F'
	CharStrikethrough rune = '\x1E'
	CharMonospace     rune = '\x11'
	CharColor         rune = '\x03'
	CharHex           rune = '\x04'
	CharReverseColor  rune = '\x16'
	CharReset         rune = '\x0F'
)

var colorRegex = regexp.MustCompile(`\x03(\d\d?)?(?:,(\d\d?))?`)
var replacer = strings.NewReplacer(
	string(CharBold), "",
	string(CharItalics), "",
	string(CharUnderline), "",
	string(CharStrikethrough), "",
	string(CharMonospace), "",
	string(CharColor), "",
	string(CharHex), "",
	string(CharReverseColor), "",
	string(CharReset), "",
)

// StripCodes removes every formatting code, colours included.
func StripCodes(text string) string {
	return replacer.Replace(colorRegex.ReplaceAllString(text, ""))
}

// StripColor removes colour codes only.
func StripColor(text string) string {
	return colorRegex.ReplaceAllString(text, "")
}

// colorAt reads the colour code at the start of text, which must begin
// with CharColor. Missing colours are -1. It returns the code's length.
func colorAt(text string) (foreground, background, size int) {
	foreground, background = -1, -1

	m := colorRegex.FindStringSubmatchIndex(text)
	if m == nil || m[0] != 0 {
		return foreground, background, 1
	}

	// Only digits match, Atoi cannot fail
	if m[2] != -1 {
		foreground, _ = strconv.Atoi(text[m[2]:m[3]])
	}
	if m[4] != -1 {
		background, _ = strconv.Atoi(text[m[4]:m[5]])
	}
	return foreground, background, m[1]
}

// Parse splits text into runs of identically formatted characters.
// Runs with no text are dropped.
func Parse(text string) []Block {
	blocks := []Block{}
	style := Empty
	runStart := 0

	// flush closes the current run at end, then continues with next styling
	// from resume onwards.
	flush := func(end, resume int, next Block) {
		if end > runStart {
			style.Text = text[runStart:end]
			blocks = append(blocks, style)
		}
		style = next
		style.Text = ""
		runStart = resume
	}

	for i, ch := range text {
		if i < runStart {
			// inside the digits of a colour code
			continue
		}

		next := style
		switch ch {
		case CharBold, CharItalics, CharUnderline, CharStrikethrough, CharMonospace:
			next.SetField(ch, !style.GetField(ch))
			flush(i, i+1, next)

		case CharColor:
			fg, bg, size := colorAt(text[i:])
			next.Color, next.Highlight = fg, bg
			flush(i, i+size, next)

		case CharReverseColor:
			if style.Color != -1 {
				next.Color, next.Highlight = style.Highlight, style.Color
				if next.Color == -1 {
					next.Color = 0
				}
			}
			next.Reverse = !style.Reverse
			flush(i, i+1, next)

		case CharReset:
			flush(i, i+1, Empty)
		}
	}
	flush(len(text), len(text), Empty)

	return blocks
}

var newlineRegex = regexp.MustCompile(`\r\n|\r|\n`)

// FlattenNewlines replaces every line break with a single space.
func FlattenNewlines(text string) string {
	return newlineRegex.ReplaceAllString(text, " ")
}
