package ircf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var msg = "Hello, \x02Wor\x1dld\x0304,07\x1d! \x1dMy name is\x1d\x0f... \x1fFirst\x1f Last. Testing reset\x1f\x1d\x02\x16ONETWO\x0fTHREE. And \x16reverse\x16!"

func TestStrip(t *testing.T) {
	msgStripped := "Hello, World! My name is... First Last. Testing resetONETWOTHREE. And reverse!"
	assert.Equal(t, msgStripped, StripCodes(msg))
}

func TestAllBlocks(t *testing.T) {
	expected := []Block{
		NewBlock("Hello, "),
		NewBlock("Wor", CharBold),
		NewBlock("ld", CharBold, CharItalics),
		NewColorBlock("! ", 4, 7, CharBold),
		NewColorBlock("My name is", 4, 7, CharBold, CharItalics),
		NewBlock("... "),
		NewBlock("First", CharUnderline),
		NewBlock(" Last. Testing reset"),
		NewBlock("ONETWO", CharBold, CharItalics, CharUnderline, CharReverseColor),
		NewBlock("THREE. And "),
		NewBlock("reverse", CharReverseColor),
		NewBlock("!"),
	}

	assert.Equal(t, expected, Parse(msg))
}

func TestStripColorCodes(t *testing.T) {
	assert.Equal(t, "\x02red\x02 and plain, 12", StripColor("\x02\x0304red\x03\x02 and \x0304,01plain\x03, 12"))
}

func TestParseColors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Block
	}{
		{"empty", "", []Block{}},
		{"only codes", "\x02\x0304\x0f", []Block{}},
		{"background only", "\x03,05a", []Block{NewColorBlock("a", -1, 5)}},
		{"bare colour resets", "\x0304red\x03 plain", []Block{NewColorBlock("red", 4, -1), NewBlock(" plain")}},
		{"three digits", "\x03123", []Block{NewColorBlock("3", 12, -1)}},
		{"reverse swaps", "\x0304,02a\x16b", []Block{NewColorBlock("a", 4, 2), NewColorBlock("b", 2, 4, CharReverseColor)}},
		{"strike and mono", "\x1es\x1e\x11m\x11", []Block{NewBlock("s", CharStrikethrough), NewBlock("m", CharMonospace)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}
