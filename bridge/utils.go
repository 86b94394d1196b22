package bridge

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// ircLineLimit is the soft limit for the text of a single PRIVMSG.
	ircLineLimit = 400

	usernameMinLength = 2
	usernameMaxLength = 32

	zeroWidthSpace = "\u200b"
)

var patternRegex = regexp.MustCompile(`\{\$(.+?)\}`)

// SubstitutePattern replaces every {$name} placeholder that has a value.
// Unknown placeholders are left as they are.
func SubstitutePattern(template string, values map[string]string) string {
	return patternRegex.ReplaceAllStringFunc(template, func(placeholder string) string {
		if v, ok := values[placeholder[2:len(placeholder)-1]]; ok {
			return v
		}
		return placeholder
	})
}

// SplitMessage breaks text on spaces into chunks of at most limit bytes.
// Joining the chunks with single spaces gives back the original text,
// unless a single word was longer than limit and had to be cut.
func SplitMessage(text string, limit int) []string {
	var chunks []string
	var current strings.Builder
	started := false

	flush := func() {
		chunks = append(chunks, current.String())
		current.Reset()
		started = false
	}

	for _, word := range strings.Split(text, " ") {
		for len(word) > limit {
			if started {
				flush()
			}
			cut := cutIndex(word, limit)
			chunks = append(chunks, word[:cut])
			word = word[cut:]
		}

		if started && current.Len()+1+len(word) > limit {
			flush()
		}
		if started {
			current.WriteByte(' ')
		}
		current.WriteString(word)
		started = true
	}
	if started {
		flush()
	}

	return chunks
}

// cutIndex is the largest index no greater than limit that starts a rune.
func cutIndex(s string, limit int) int {
	for i := limit; i > 0; i-- {
		if utf8.RuneStart(s[i]) {
			return i
		}
	}
	return limit
}

// ClampUsername makes name acceptable as a webhook username, which Discord
// requires to be between 2 and 32 characters.
func ClampUsername(name string) string {
	runes := []rune(name)
	if len(runes) > usernameMaxLength {
		runes = runes[:usernameMaxLength]
	}
	name = string(runes)
	if n := len(runes); n < usernameMinLength {
		name += strings.Repeat("_", usernameMinLength-n)
	}
	return name
}

// BreakPing inserts a zero width space after the first character, so
// that relaying a name does not notify the IRC user with that nick.
func BreakPing(name string) string {
	_, size := utf8.DecodeRuneInString(name)
	if size == 0 || size == len(name) {
		return name
	}
	return name[:size] + zeroWidthSpace + name[size:]
}

var (
	markdownEscapedRegex = regexp.MustCompile("\\\\([*_`~\\\\])")
	markdownCharRegex    = regexp.MustCompile("([*_`~\\\\])")
)

// EscapeMarkdown escapes markdown control characters. Characters that are
// already escaped are not escaped twice.
func EscapeMarkdown(text string) string {
	text = markdownEscapedRegex.ReplaceAllString(text, "$1")
	return markdownCharRegex.ReplaceAllString(text, "\\$1")
}

// EscapeEveryone stops @everyone and @here from notifying the whole channel.
func EscapeEveryone(content string) string {
	// Replace everyone and here - https://git.io/Je1yi
	content = strings.ReplaceAll(content, "@everyone", "@"+zeroWidthSpace+"everyone")
	return strings.ReplaceAll(content, "@here", "@"+zeroWidthSpace+"here")
}

// RawCommand builds an IRC line from a command and its parameters. The last
// parameter is sent as a trailing parameter when it needs to be.
func RawCommand(command []string) string {
	if len(command) < 2 {
		return strings.Join(command, " ")
	}
	params := append([]string(nil), command...)
	last := params[len(params)-1]
	if last == "" || strings.Contains(last, " ") || strings.HasPrefix(last, ":") {
		params[len(params)-1] = ":" + last
	}
	return strings.Join(params, " ")
}
