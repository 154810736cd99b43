// Package render turns files read from a mounted package into terminal output.
package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// DefaultStyle is used when no theme style is given.
const DefaultStyle = "monokai"

// Formatter picks the chroma formatter for a terminal color profile.
func Formatter(profile termenv.Profile) chroma.Formatter {
	switch profile {
	case termenv.TrueColor:
		return formatters.TTY16m
	case termenv.ANSI256:
		return formatters.TTY256
	case termenv.ANSI:
		return formatters.TTY16
	default:
		return formatters.NoOp
	}
}

// Lexer finds a lexer by file name, then by language name, then by looking at
// the source. It falls back to plain text.
func Lexer(name, source string) chroma.Lexer {
	lexer := lexers.Match(name)
	if lexer == nil && name != "" {
		lexer = lexers.Get(name)
	}
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Options configure rendering.
type Options struct {
	// Style defaults to DefaultStyle.
	Style *chroma.Style
	// Profile selects the escape sequences; termenv.Ascii disables color.
	Profile termenv.Profile
	// Width of the terminal for wrapped output.
	Width int
}

func (o Options) style() *chroma.Style {
	if o.Style != nil {
		return o.Style
	}
	return styles.Get(DefaultStyle)
}

// Code highlights source as the language the name suggests.
func Code(name, source string, options Options) (string, error) {
	iterator, err := Lexer(name, source).Tokenise(nil, source)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := Formatter(options.Profile).Format(&b, options.style(), iterator); err != nil {
		return "", err
	}
	return b.String(), nil
}

// DefaultOptions detects the color profile from the environment.
func DefaultOptions(width int) Options {
	return Options{Profile: termenv.EnvColorProfile(), Width: width}
}
