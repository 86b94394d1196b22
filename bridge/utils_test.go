package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitutePattern(t *testing.T) {
	values := map[string]string{"author": "bob", "text": "hello"}

	assert.Equal(t, "<bob> hello", SubstitutePattern("<{$author}> {$text}", values))
	assert.Equal(t, "{$missing} bob", SubstitutePattern("{$missing} {$author}", values))
	assert.Equal(t, "no placeholders", SubstitutePattern("no placeholders", values))
	assert.Equal(t, "$1 bob", SubstitutePattern("$1 {$author}", values))
}

func TestSplitMessage(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		assert.Equal(t, []string{"hello world"}, SplitMessage("hello world", 400))
	})

	t.Run("long text reconstructs", func(t *testing.T) {
		words := make([]string, 200)
		for i := range words {
			words[i] = "word"
		}
		text := strings.Join(words, " ")

		chunks := SplitMessage(text, 400)
		assert.GreaterOrEqual(t, len(chunks), 2)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 400)
		}
		assert.Equal(t, text, strings.Join(chunks, " "))
	})

	t.Run("exact boundary", func(t *testing.T) {
		chunks := SplitMessage("aaaa bbbb cccc", 9)
		assert.Equal(t, []string{"aaaa bbbb", "cccc"}, chunks)
	})

	t.Run("overlong word is cut", func(t *testing.T) {
		chunks := SplitMessage("hi "+strings.Repeat("x", 25)+" bye", 10)
		assert.Equal(t, []string{"hi", "xxxxxxxxxx", "xxxxxxxxxx", "xxxxx bye"}, chunks)
	})

	t.Run("cut respects runes", func(t *testing.T) {
		chunks := SplitMessage("ééééé", 3)
		assert.Equal(t, []string{"é", "é", "é", "é", "é"}, chunks)
	})
}

func TestClampUsername(t *testing.T) {
	assert.Equal(t, "n_", ClampUsername("n"))
	assert.Equal(t, "__", ClampUsername(""))
	assert.Equal(t, "ok", ClampUsername("ok"))
	assert.Equal(t, strings.Repeat("a", 32), ClampUsername(strings.Repeat("a", 40)))
}

func TestBreakPing(t *testing.T) {
	assert.Equal(t, "o\u200btherauthor", BreakPing("otherauthor"))
	assert.Equal(t, "é\u200bdouard", BreakPing("édouard"))
	assert.Equal(t, "x", BreakPing("x"))
	assert.Equal(t, "", BreakPing(""))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `user\_name`, EscapeMarkdown("user_name"))
	assert.Equal(t, `user\_name`, EscapeMarkdown(`user\_name`))
	assert.Equal(t, `\*star\*`, EscapeMarkdown("*star*"))
}

func TestEscapeEveryone(t *testing.T) {
	assert.Equal(t, "hi @\u200beveryone and @\u200bhere", EscapeEveryone("hi @everyone and @here"))
}

func TestRawCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  []string
		expected string
	}{
		{"identify", []string{"PRIVMSG", "NickServ", "IDENTIFY secret"}, "PRIVMSG NickServ :IDENTIFY secret"},
		{"single word", []string{"MODE", "bridgebot", "+B"}, "MODE bridgebot +B"},
		{"leading colon", []string{"PRIVMSG", "#chan", ":)"}, "PRIVMSG #chan ::)"},
		{"empty last", []string{"AWAY", ""}, "AWAY :"},
		{"command only", []string{"LUSERS"}, "LUSERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RawCommand(tt.command))
		})
	}
}
