package ircf

import (
	"strings"

	"github.com/pkg/errors"
)

// Emphasis is a markdown style that a colour can be rendered as.
type Emphasis string

const (
	EmphasisBold          Emphasis = "bold"
	EmphasisItalic        Emphasis = "italic"
	EmphasisUnderline     Emphasis = "underline"
	EmphasisStrikethrough Emphasis = "strikethrough"
	EmphasisSpoiler       Emphasis = "spoiler"
)

// ParseEmphasis validates an emphasis name.
func ParseEmphasis(name string) (Emphasis, error) {
	e := Emphasis(strings.ToLower(strings.TrimSpace(name)))
	switch e {
	case EmphasisBold, EmphasisItalic, EmphasisUnderline, EmphasisStrikethrough, EmphasisSpoiler:
		return e, nil
	}
	return "", errors.Errorf("unknown emphasis %q", name)
}

func (e Emphasis) apply(b *Block) {
	switch e {
	case EmphasisBold:
		b.Bold = true
	case EmphasisItalic:
		b.Italic = true
	case EmphasisUnderline:
		b.Underline = true
	case EmphasisStrikethrough:
		b.Strikethrough = true
	case EmphasisSpoiler:
		b.Highlight = b.Color
	}
}
