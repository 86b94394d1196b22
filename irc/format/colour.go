package ircf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var colorCodes = map[string]int{
	"white":         0,
	"black":         1,
	"dark_blue":     2,
	"navy":          2,
	"dark_green":    3,
	"green":         3,
	"light_red":     4,
	"red":           4,
	"dark_red":      5,
	"brown":         5,
	"magenta":       6,
	"purple":        6,
	"orange":        7,
	"yellow":        8,
	"light_green":   9,
	"lime":          9,
	"cyan":          10,
	"teal":          10,
	"light_cyan":    11,
	"aqua":          11,
	"light_blue":    12,
	"blue":          12,
	"light_magenta": 13,
	"pink":          13,
	"gray":          14,
	"grey":          14,
	"light_gray":    15,
	"light_grey":    15,
	"silver":        15,
}

// DefaultNickColors is the palette used for nickname colouring when none is configured.
var DefaultNickColors = []string{
	"light_blue", "dark_blue", "light_red", "dark_red",
	"light_green", "dark_green", "magenta", "light_magenta",
	"orange", "yellow", "cyan", "light_cyan",
}

// ColorCode resolves a colour name, or a numeric code in 0-99, to its IRC code.
func ColorCode(name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if code, ok := colorCodes[name]; ok {
		return code, nil
	}
	if code, err := strconv.Atoi(name); err == nil && code >= 0 && code <= 99 {
		return code, nil
	}
	return 0, errors.Errorf("unknown IRC colour %q", name)
}

// Wrap surrounds text with a colour code and a reset.
func Wrap(code int, text string) string {
	return fmt.Sprintf("%c%02d%s%c", CharColor, code, text, CharReset)
}

// Palette is an ordered list of colour codes used to colour nicknames.
type Palette []int

// NewPalette resolves names into a Palette. An empty list yields DefaultNickColors.
func NewPalette(names []string) (Palette, error) {
	if len(names) == 0 {
		names = DefaultNickColors
	}
	p := make(Palette, 0, len(names))
	for _, name := range names {
		code, err := ColorCode(name)
		if err != nil {
			return nil, err
		}
		p = append(p, code)
	}
	return p, nil
}

// Index picks the palette slot for a nickname from its first character and length.
func (p Palette) Index(nick string) int {
	first, _ := utf8.DecodeRuneInString(nick)
	return (int(first) + utf8.RuneCountInString(nick)) % len(p)
}

// Color returns the colour code assigned to nick.
func (p Palette) Color(nick string) int {
	return p[p.Index(nick)]
}

// Wrap colours display using the colour assigned to nick.
// Empty names and empty palettes are returned unchanged.
func (p Palette) Wrap(nick, display string) string {
	if len(p) == 0 || nick == "" {
		return display
	}
	return Wrap(p.Color(nick), display)
}
