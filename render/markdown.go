package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const minWidth = 10

var (
	parser     goldmark.Markdown
	parserOnce sync.Once
)

func markdownParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return parser
}

// Markdown renders a markdown document for the terminal. Paragraphs are
// reflowed to the width, fenced code is highlighted and the colors come from
// the highlighter style, so a document looks the way the theme would show it.
func Markdown(source string, options Options) (string, error) {
	if source == "" {
		return "", nil
	}

	lip := lipgloss.NewRenderer(io.Discard)
	lip.SetColorProfile(options.Profile)

	r := &markdownRenderer{
		source:  []byte(source),
		options: options,
		palette: newPalette(options.style()),
		lip:     lip,
	}

	document := markdownParser().Parser().Parse(text.NewReader(r.source))
	if err := ast.Walk(document, r.walk); err != nil {
		return "", err
	}

	return strings.TrimRight(r.output.String(), "\n") + "\n", nil
}

type palette struct {
	text, heading, faint, link, code lipgloss.Color
}

func newPalette(style *chroma.Style) palette {
	colour := func(fallback string, tokens ...chroma.TokenType) lipgloss.Color {
		for _, token := range tokens {
			if entry := style.Get(token); entry.Colour.IsSet() {
				return lipgloss.Color(entry.Colour.String())
			}
		}
		return lipgloss.Color(fallback)
	}

	return palette{
		text:    colour("7", chroma.Text),
		heading: colour("5", chroma.GenericHeading, chroma.Keyword),
		faint:   colour("8", chroma.Comment),
		link:    colour("4", chroma.NameFunction),
		code:    colour("3", chroma.LiteralString),
	}
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

type markdownRenderer struct {
	source  []byte
	options Options
	palette palette
	lip     *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	prefix        []string
	pendingBullet string
	lists         []listState

	bold, italic, strike int
	trailingNewlines     int
}

func (r *markdownRenderer) width() int {
	width := r.options.Width - ansi.StringWidth(strings.Join(r.prefix, ""))
	if width < minWidth {
		return minWidth
	}
	return width
}

func (r *markdownRenderer) linePrefix() string {
	return strings.Join(r.prefix, "")
}

func (r *markdownRenderer) pushPrefix(prefix string) {
	r.prefix = append(r.prefix, prefix)
}

func (r *markdownRenderer) popPrefix() {
	if len(r.prefix) > 0 {
		r.prefix = r.prefix[:len(r.prefix)-1]
	}
}

func (r *markdownRenderer) tightList() bool {
	return len(r.lists) > 0 && r.lists[len(r.lists)-1].tight
}

func (r *markdownRenderer) write(s string) {
	if s == "" {
		return
	}
	r.output.WriteString(s)

	trimmed := strings.TrimRight(s, "\n")
	newlines := len(s) - len(trimmed)
	if trimmed == "" {
		r.trailingNewlines += newlines
	} else {
		r.trailingNewlines = newlines
	}
}

func (r *markdownRenderer) newline() {
	if r.trailingNewlines < 1 && r.output.Len() > 0 {
		r.write("\n")
	}
}

func (r *markdownRenderer) blankLine() {
	if r.output.Len() == 0 {
		return
	}
	for r.trailingNewlines < 2 {
		r.write("\n")
	}
}

// prefixed puts the line prefix in front of every line, or the pending list
// bullet in front of the first one.
func (r *markdownRenderer) prefixed(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		prefix := r.linePrefix()
		if i == 0 && r.pendingBullet != "" {
			prefix, r.pendingBullet = r.pendingBullet, ""
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (r *markdownRenderer) flushInline() string {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return ""
	}
	return r.prefixed(ansi.Wrap(content, r.width(), " ,.;-+|"))
}

func (r *markdownRenderer) styled(s string) string {
	style := r.lip.NewStyle().Foreground(r.palette.text)
	if r.bold > 0 {
		style = style.Bold(true)
	}
	if r.italic > 0 {
		style = style.Italic(true)
	}
	if r.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(s)
}

func (r *markdownRenderer) lines(node ast.Node) string {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(r.source))
	}
	return b.String()
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
			break
		}
		if flushed := r.flushInline(); flushed != "" {
			r.write(flushed)
			r.newline()
			if !r.tightList() {
				r.blankLine()
			}
		}

	case ast.KindHeading:
		if entering {
			r.inline.Reset()
			break
		}
		r.heading(node.(*ast.Heading))

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			return ast.WalkSkipChildren, r.codeBlock(string(block.Language(r.source)), r.lines(block))
		}

	case ast.KindCodeBlock:
		if entering {
			return ast.WalkSkipChildren, r.codeBlock("", r.lines(node))
		}

	case ast.KindBlockquote:
		if entering {
			r.pushPrefix(r.lip.NewStyle().Foreground(r.palette.faint).Render("│ "))
		} else {
			r.popPrefix()
			r.blankLine()
		}

	case ast.KindList:
		list := node.(*ast.List)
		if entering {
			r.lists = append(r.lists, listState{ordered: list.IsOrdered(), counter: list.Start, tight: list.IsTight})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if !r.tightList() {
				r.blankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			r.listItem()
		} else {
			r.popPrefix()
			r.newline()
		}

	case ast.KindThematicBreak:
		if entering {
			rule := r.lip.NewStyle().Foreground(r.palette.faint).Render(strings.Repeat("─", r.width()))
			r.blankLine()
			r.write(r.prefixed(rule))
			r.newline()
			r.blankLine()
		}

	case ast.KindHTMLBlock:
		return ast.WalkSkipChildren, nil

	case ast.KindText:
		if entering {
			t := node.(*ast.Text)
			r.inline.WriteString(r.styled(string(t.Segment.Value(r.source))))
			if t.HardLineBreak() {
				r.inline.WriteString("\n")
			} else if t.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.styled(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		counter := &r.italic
		if node.(*ast.Emphasis).Level >= 2 {
			counter = &r.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case extast.KindStrikethrough:
		if entering {
			r.strike++
		} else {
			r.strike--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if t, ok := child.(*ast.Text); ok {
					code.Write(t.Segment.Value(r.source))
				}
			}
			r.inline.WriteString(r.lip.NewStyle().Foreground(r.palette.code).Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			destination := string(node.(*ast.Link).Destination)
			if destination != "" {
				r.inline.WriteString(" " + r.lip.NewStyle().Foreground(r.palette.link).Underline(true).Render("("+destination+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(r.source))
			r.inline.WriteString(r.lip.NewStyle().Foreground(r.palette.link).Underline(true).Render(url))
		}

	case ast.KindImage:
		if entering {
			image := node.(*ast.Image)
			alt := r.plainText(image)
			r.inline.WriteString(r.lip.NewStyle().Foreground(r.palette.faint).Render("[" + alt + "] (" + string(image.Destination) + ")"))
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			box := "[ ] "
			if node.(*extast.TaskCheckBox).IsChecked {
				box = "[x] "
			}
			r.inline.WriteString(r.styled(box))
		}
	}

	return ast.WalkContinue, nil
}

func (r *markdownRenderer) plainText(node ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(r.source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func (r *markdownRenderer) heading(heading *ast.Heading) {
	content := ansi.Strip(r.inline.String())
	r.inline.Reset()
	if content == "" {
		return
	}

	style := r.lip.NewStyle().Bold(true).Foreground(r.palette.heading)
	if heading.Level > 2 {
		style = style.Foreground(r.palette.text)
	}
	if heading.Level == 1 {
		style = style.Underline(true)
	}

	r.blankLine()
	r.write(r.prefixed(ansi.Wrap(style.Render(content), r.width(), " ,.;-+|")))
	r.newline()
	r.blankLine()
}

func (r *markdownRenderer) codeBlock(language, code string) error {
	highlighted := r.lip.NewStyle().Foreground(r.palette.faint).Render(strings.TrimRight(code, "\n"))
	if language != "" {
		h, err := Code(language, code, r.options)
		if err != nil {
			return err
		}
		highlighted = h
	}

	r.blankLine()
	for _, line := range strings.Split(strings.TrimRight(highlighted, "\n"), "\n") {
		r.write(r.prefixed("  " + line))
		r.newline()
	}
	r.blankLine()
	return nil
}

func (r *markdownRenderer) listItem() {
	if len(r.lists) == 0 {
		return
	}
	top := &r.lists[len(r.lists)-1]

	bullet := "• "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}

	r.pendingBullet = r.linePrefix() + bullet
	r.pushPrefix(strings.Repeat(" ", ansi.StringWidth(bullet)))
}
