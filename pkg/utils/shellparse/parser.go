// Package shellparse splits and joins worker command lines using POSIX
// shell quoting rules.
package shellparse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrUnclosedQuote  = errors.New("❌ unclosed quote in command line")
	ErrTrailingEscape = errors.New("❌ trailing backslash in command line")
)

type quoteState uint8

const (
	bare quoteState = iota
	single
	double
)

// Split breaks a command line into words. Whitespace separates words
// outside quotes. Single quotes are literal. Inside double quotes a
// backslash only escapes one of " \ $ `. A bare backslash escapes any
// character. Empty quotes produce an empty word.
func Split(line string) ([]string, error) {
	var (
		words []string
		word  strings.Builder
		state quoteState
		open  bool // a word has started, possibly empty
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		switch state {
		case single:
			if ch == '\'' {
				state = bare
			} else {
				word.WriteRune(ch)
			}
			continue

		case double:
			switch ch {
			case '"':
				state = bare
			case '\\':
				if i+1 >= len(runes) {
					return nil, ErrTrailingEscape
				}
				i++
				if !strings.ContainsRune("\"\\$`", runes[i]) {
					word.WriteRune('\\')
				}
				word.WriteRune(runes[i])
			default:
				word.WriteRune(ch)
			}
			continue
		}

		switch {
		case ch == '\\':
			if i+1 >= len(runes) {
				return nil, ErrTrailingEscape
			}
			i++
			word.WriteRune(runes[i])
			open = true
		case ch == '\'':
			state, open = single, true
		case ch == '"':
			state, open = double, true
		case unicode.IsSpace(ch):
			if open {
				words = append(words, word.String())
				word.Reset()
				open = false
			}
		default:
			word.WriteRune(ch)
			open = true
		}
	}

	switch state {
	case single:
		return nil, fmt.Errorf("%w: single", ErrUnclosedQuote)
	case double:
		return nil, fmt.Errorf("%w: double", ErrUnclosedQuote)
	}
	if open {
		words = append(words, word.String())
	}
	return words, nil
}

// Join quotes args so that Split returns them unchanged.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quote(a)
	}
	return strings.Join(quoted, " ")
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsFunc(arg, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("'\"\\$`", r)
	}) {
		return arg
	}
	if !strings.Contains(arg, "'") {
		return "'" + arg + "'"
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		if strings.ContainsRune("\"\\$`", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
