package ircf

import "strings"

// From https://github.com/reactiflux/discord-irc/blob/87a3458bdde48290960405f2bf0cf53b7ff17b5e/lib/formatting.js#L25

// BlocksToMarkdown renders parsed blocks as Discord markdown.
func BlocksToMarkdown(blocks []Block) string {
	var md strings.Builder

	for i := 0; i < len(blocks)+1; i++ {
		// Default to unstyled blocks when index out of range
		block := Empty
		if i < len(blocks) {
			block = blocks[i]
		}
		prevBlock := Empty
		if i > 0 {
			prevBlock = blocks[i-1]
		}

		// Consider reverse as italic, some IRC clients use that
		prevItalic := prevBlock.Italic || prevBlock.Reverse
		italic := block.Italic || block.Reverse

		prevSpoiler := prevBlock.IsSpoiler()
		spoiler := block.IsSpoiler()

		// Add start markers when style turns from false to true
		if !prevItalic && italic {
			md.WriteString("*")
		}
		if !prevBlock.Bold && block.Bold {
			md.WriteString("**")
		}
		if !prevBlock.Underline && block.Underline {
			md.WriteString("__")
		}
		if !prevBlock.Strikethrough && block.Strikethrough {
			md.WriteString("~~")
		}
		if !prevSpoiler && spoiler {
			md.WriteString("||")
		}
		if !prevBlock.Monospace && block.Monospace {
			md.WriteString("`")
		}

		// Add end markers when style turns from true to false
		// (and apply in reverse order to maintain nesting)
		if prevBlock.Monospace && !block.Monospace {
			md.WriteString("`")
		}
		if prevBlock.Strikethrough && !block.Strikethrough {
			md.WriteString("~~")
		}
		if prevBlock.Underline && !block.Underline {
			md.WriteString("__")
		}
		if prevBlock.Bold && !block.Bold {
			md.WriteString("**")
		}
		if prevItalic && !italic {
			md.WriteString("*")
		}
		if prevSpoiler && !spoiler {
			md.WriteString("||")
		}

		md.WriteString(block.Text)
	}

	return md.String()
}

// Options control how IRC text is turned into markdown.
type Options struct {
	// ColorEmphasis maps a foreground colour code to the emphasis it is rendered as.
	// Colours without an entry are dropped.
	ColorEmphasis map[int]Emphasis

	// GameLog recolours messages from specific authors before conversion.
	GameLog GameLog
}

// ToMarkdown converts an IRC message sent by author into Discord markdown.
func ToMarkdown(text, author string, opts Options) string {
	var fallback Emphasis
	if rules, ok := opts.GameLog[author]; ok {
		text = rules.Colorize(StripCodes(text))
		fallback = EmphasisBold
	}

	blocks := Parse(text)
	for i := range blocks {
		if blocks[i].Color == -1 || blocks[i].IsSpoiler() {
			continue
		}
		if e, ok := opts.ColorEmphasis[blocks[i].Color]; ok {
			e.apply(&blocks[i])
		} else if fallback != "" {
			fallback.apply(&blocks[i])
		}
	}
	return BlocksToMarkdown(blocks)
}
