// Package ircnick turns arbitrary display names into nicknames an IRC server accepts.
package ircnick

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// IsDigit reports whether c is an ASCII digit.
func IsDigit(c byte) bool { return '0' <= c && c <= '9' }

// IsLetter reports whether c is an ASCII letter.
func IsLetter(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }

// IsSpecial reports whether c is one of the RFC 2812 "special" nickname characters.
func IsSpecial(c byte) bool { return strings.IndexByte("[]\\`_^{|}", c) >= 0 }

// IsNickChar reports whether c may appear in a nickname.
func IsNickChar(c byte) bool { return IsLetter(c) || IsDigit(c) || IsSpecial(c) || c == '-' }

// NickClean transliterates nick to ASCII and replaces invalid characters with an underscore
func NickClean(nick string) string {
	// https://github.com/lp0/charybdis/blob/9ced2a7932dddd069636fe6fe8e9faa6db904703/ircd/client.c#L854-L884
	nick = unidecode.Unidecode(strings.TrimSpace(nick))
	if nick == "" {
		return "_"
	}
	if nick[0] == '-' || IsDigit(nick[0]) {
		nick = "_" + nick
	}

	newNick := []byte(nick)

	// Replace bad characters with underscores
	for i, c := range newNick {
		if !IsNickChar(c) {
			newNick[i] = '_'
		}
	}

	return string(newNick)
}
