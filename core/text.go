package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Fold normalises `s` for case-insensitive matching: compatibility decomposition,
// whitespace folding and Unicode case folding. Keywords are stored folded so that
// prefix searches behave the same on every database engine.
func Fold(s string) string {
	t := transform.Chain(norm.NFKC, &whitespaceFolder{}, cases.Fold())
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// ASCIISafe strips diacritics from `s` and replaces every remaining non-ASCII rune by a space.
func ASCIISafe(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r >= utf8.RuneSelf {
				return ' '
			}
			return r
		}),
	)
	safe, _, err := transform.String(t, s)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if r >= utf8.RuneSelf {
				return ' '
			}
			return r
		}, s)
	}
	return safe
}

// LikePrefix builds a LIKE pattern matching values starting with `s`. Use with ESCAPE '\'.
func LikePrefix(s string) string {
	return likeEscaper.Replace(s) + "%"
}

// LikeContains builds a LIKE pattern matching values containing `s`. Use with ESCAPE '\'.
func LikeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// whitespaceFolder trims leading and trailing whitespace and collapses
// internal whitespace spans into a single ASCII space.
type whitespaceFolder struct {
	notStart bool
	wsSpan   bool
}

func (w *whitespaceFolder) Reset() {
	w.notStart = false
	w.wsSpan = false
}

func (w *whitespaceFolder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var nDst, nSrc int
	for nSrc < len(src) {
		c, size := utf8.DecodeRune(src[nSrc:])
		if c == utf8.RuneError && !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		if unicode.IsSpace(c) {
			nSrc += size
			if w.notStart {
				w.wsSpan = true
			}
			continue
		}

		if w.wsSpan {
			if nDst+1 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = ' '
			nDst++
			w.wsSpan = false
		}

		if nDst+utf8.RuneLen(c) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		w.notStart = true
		nSrc += size
		nDst += utf8.EncodeRune(dst[nDst:], c)
	}
	return nDst, nSrc, nil
}
