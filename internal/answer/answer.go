// internal/answer/answer.go
//
// Answer grammar for crossword rooms.
// Responsibilities:
//   - Parse clue references like "12a" or " 7D " into (number, direction).
//   - Parse answer text into per-cell values, honoring rebus groups and "."
//     placeholders.
//   - Format per-cell values back into answer text.
//
// Grammar (whitespace is skipped everywhere and never lands in a cell):
//   - "(" opens a rebus group; everything up to the matching ")" is one cell.
//   - "." outside a group is an empty cell (leave unchanged / blank).
//   - any other character is a one-character cell, case preserved.
//
// An unterminated group is accepted: the partial group becomes the final
// cell. Length checks against the target clue happen in the caller.
//
// Text is read as UTF-8. Each invalid byte becomes a U+FFFD cell, which no
// solution letter matches; the HTTP layer rejects such bodies up front.
package answer

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Direction identifies which way an answer runs through the grid.
type Direction string

const (
	Across Direction = "a"
	Down   Direction = "d"
)

// ErrMalformedClue is returned when a clue reference cannot be parsed.
var ErrMalformedClue = errors.New("malformed clue reference")

// ParseClue splits a clue reference of the form <number><a|d> into its
// number and direction. Case and surrounding whitespace are ignored.
func ParseClue(ref string) (int, Direction, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, "", ErrMalformedClue
	}

	last, size := utf8.DecodeLastRuneInString(ref)
	digits := ref[:len(ref)-size]
	if digits == "" || !isDigits(digits) {
		return 0, "", ErrMalformedClue
	}

	num, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", ErrMalformedClue
	}

	switch unicode.ToLower(last) {
	case 'a':
		return num, Across, nil
	case 'd':
		return num, Down, nil
	}
	return 0, "", ErrMalformedClue
}

// isDigits reports whether s is all ASCII digits. Signs are rejected so that
// "-1a" and "+1a" are not clue references.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseAnswer converts answer text into the ordered values to place in each
// cell of a clue. "(red)velvet" yields ["red","v","e","l","v","e","t"] and
// "....s" yields ["","","","","s"].
func ParseAnswer(text string) []string {
	cells := []string{}

	var group strings.Builder
	inGroup := false
	for _, c := range text {
		if unicode.IsSpace(c) {
			continue
		}

		if inGroup {
			if c == ')' {
				cells = append(cells, group.String())
				group.Reset()
				inGroup = false
				continue
			}
			group.WriteRune(c)
			continue
		}

		switch c {
		case '(':
			inGroup = true
		case '.':
			cells = append(cells, "")
		default:
			cells = append(cells, string(c))
		}
	}

	// Lenient: an unclosed group still counts as a cell.
	if inGroup {
		cells = append(cells, group.String())
	}
	return cells
}

// Format renders cell values as answer text. Blank cells become "." and
// anything that is not exactly one character is wrapped in parentheses, so
// any sequence produced by ParseAnswer formats back to text that parses to
// the same sequence.
func Format(values []string) string {
	var b strings.Builder
	for _, v := range values {
		switch {
		case v == "":
			b.WriteByte('.')
		case utf8.RuneCountInString(v) == 1 && v != "(" && v != ".":
			b.WriteString(v)
		default:
			b.WriteByte('(')
			b.WriteString(v)
			b.WriteByte(')')
		}
	}
	return b.String()
}
