package theme

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
)

// tokenScopes maps highlighter token types to the scopes themes paint them
// with, most specific first.
var tokenScopes = []struct {
	token  chroma.TokenType
	scopes []string
}{
	{chroma.Comment, []string{"comment"}},
	{chroma.CommentPreproc, []string{"meta.preprocessor", "keyword.control.directive"}},
	{chroma.Keyword, []string{"keyword.control", "keyword"}},
	{chroma.KeywordType, []string{"storage.type", "support.type", "storage"}},
	{chroma.KeywordDeclaration, []string{"storage.type", "storage"}},
	{chroma.KeywordConstant, []string{"constant.language"}},
	{chroma.Operator, []string{"keyword.operator"}},
	{chroma.Punctuation, []string{"punctuation"}},
	{chroma.LiteralString, []string{"string"}},
	{chroma.LiteralStringEscape, []string{"constant.character.escape"}},
	{chroma.LiteralStringRegex, []string{"string.regexp"}},
	{chroma.LiteralNumber, []string{"constant.numeric"}},
	{chroma.NameFunction, []string{"entity.name.function", "support.function"}},
	{chroma.NameClass, []string{"entity.name.type", "entity.name.class", "support.class"}},
	{chroma.NameBuiltin, []string{"support.function", "support.type"}},
	{chroma.NameTag, []string{"entity.name.tag"}},
	{chroma.NameAttribute, []string{"entity.other.attribute-name"}},
	{chroma.NameVariable, []string{"variable.other", "variable"}},
	{chroma.NameConstant, []string{"variable.other.constant", "constant"}},
	{chroma.NameProperty, []string{"variable.other.property", "support.type.property-name"}},
	{chroma.GenericHeading, []string{"markup.heading"}},
	{chroma.GenericStrong, []string{"markup.bold"}},
	{chroma.GenericEmph, []string{"markup.italic"}},
	{chroma.GenericDeleted, []string{"markup.deleted"}},
	{chroma.GenericInserted, []string{"markup.inserted"}},
}

// Match returns the settings the document applies to scope. The rule with the
// longest matching selector wins and later rules win ties. The last segment
// of a descendant selector such as "source.ts string" is what gets matched.
func (d *Document) Match(scope string) (TokenSettings, bool) {
	var (
		best  TokenSettings
		score = -1
	)

	for _, rule := range d.TokenColors {
		for _, selector := range rule.Scope {
			fields := strings.Fields(selector)
			if len(fields) == 0 {
				continue
			}

			last := fields[len(fields)-1]
			if scope != last && !strings.HasPrefix(scope, last+".") {
				continue
			}

			if len(last) >= score {
				best, score = rule.Settings, len(last)
			}
		}
	}

	return best, score >= 0
}

// Style converts the document into a highlighter style, so code can be shown
// in the colors of the theme.
func (d *Document) Style() (*chroma.Style, error) {
	entries := chroma.StyleEntries{}

	background := hexColor(d.Color("editor.background"))
	foreground := hexColor(d.Color("editor.foreground"))
	if base, ok := d.Match("source"); ok && foreground == "" {
		foreground = hexColor(base.Foreground)
	}

	if entry := styleEntry(foreground, "", background); entry != "" {
		entries[chroma.Background] = entry
	}
	if foreground != "" {
		entries[chroma.Text] = foreground
	}

	for _, mapping := range tokenScopes {
		if _, taken := entries[mapping.token]; taken {
			continue
		}
		for _, scope := range mapping.scopes {
			settings, ok := d.Match(scope)
			if !ok {
				continue
			}
			if entry := styleEntry(hexColor(settings.Foreground), settings.FontStyle, hexColor(settings.Background)); entry != "" {
				entries[mapping.token] = entry
				break
			}
		}
	}

	name := d.Name
	if name == "" {
		name = "theme"
	}
	return chroma.NewStyle(name, entries)
}

func styleEntry(foreground, fontStyle, background string) string {
	var parts []string
	if foreground != "" {
		parts = append(parts, foreground)
	}
	for _, style := range strings.Fields(fontStyle) {
		switch style {
		case "bold", "italic", "underline":
			parts = append(parts, style)
		}
	}
	if background != "" {
		parts = append(parts, "bg:"+background)
	}
	return strings.Join(parts, " ")
}

// hexColor normalizes #rgb, #rrggbb and #rrggbbaa to #rrggbb and drops
// anything else.
func hexColor(value string) string {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "#") {
		return ""
	}

	hex := value[1:]
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return ""
		}
	}

	switch len(hex) {
	case 3, 4:
		return "#" + string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6, 8:
		return "#" + hex[:6]
	default:
		return ""
	}
}
