package ircnick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNickClean(t *testing.T) {
	cases := []struct {
		Message  string
		Input    string
		Expected string
	}{
		{"already valid", "discord-bot", "discord-bot"},
		{"specials kept", "[bot]_^{|}", "[bot]_^{|}"},
		{"leading digit", "9lives", "_9lives"},
		{"leading dash", "-dash", "_-dash"},
		{"spaces", "my bot", "my_bot"},
		{"transliterated", "bötchen", "botchen"},
		{"punctuation", "bot!@home", "bot__home"},
		{"empty", "  ", "_"},
	}

	for _, c := range cases {
		t.Run(c.Message, func(t *testing.T) {
			assert.Equal(t, c.Expected, NickClean(c.Input))
		})
	}
}
