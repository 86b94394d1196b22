package ircf

import "fmt"

// From https://www.npmjs.com/package/irc-formatting 1.0.0-rc3

// Block is a run of text sharing the same formatting.
type Block struct {
	Bold, Italic, Underline, Strikethrough, Monospace, Reverse bool
	Color, Highlight                                           int
	Text                                                       string
}

// Empty is an unformatted block with no text.
var Empty = NewBlock("")

// NewBlock returns an uncoloured block with the given styles switched on.
func NewBlock(text string, fields ...rune) Block {
	return NewColorBlock(text, -1, -1, fields...)
}

// NewColorBlock returns a block with the given colours and styles.
// A colour of -1 means unset.
func NewColorBlock(text string, color, highlight int, fields ...rune) (b Block) {
	b.Text = text
	b.Color = color
	b.Highlight = highlight

	for _, code := range fields {
		b.SetField(code, true)
	}

	return
}

// IsPlain reports whether the block carries no formatting at all.
func (b Block) IsPlain() bool {
	return !b.Bold && !b.Italic && !b.Underline && !b.Strikethrough && !b.Monospace && !b.Reverse &&
		b.Color == -1 && b.Highlight == -1
}

// IsSpoiler reports whether the foreground and background colours are the same.
func (b Block) IsSpoiler() bool {
	return b.Color != -1 && b.Color == b.Highlight
}

func (b *Block) codeToField(code rune) (field *bool) {
	switch code {
	case CharBold:
		field = &b.Bold
	case CharItalics:
		field = &b.Italic
	case CharUnderline:
		field = &b.Underline
	case CharStrikethrough:
		field = &b.Strikethrough
	case CharMonospace:
		field = &b.Monospace
	case CharReverseColor:
		field = &b.Reverse
	}
	return field
}

// SetField sets the style toggled by code. It panics on codes that are not toggles.
func (b *Block) SetField(code rune, val bool) {
	if field := b.codeToField(code); field != nil {
		*field = val
		return
	}
	panic(fmt.Sprintf(`Unknown code \x%x`, code))
}

// GetField returns the style toggled by code. It panics on codes that are not toggles.
func (b Block) GetField(code rune) bool {
	if field := b.codeToField(code); field != nil {
		return *field
	}
	panic(fmt.Sprintf(`Unknown code \x%x`, code))
}
