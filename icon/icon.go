// Package icon renders UI symbols in the variant the user picked.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII, kaomoji,
// or Unicode squares.
package icon

import (
	"github.com/spf13/viper"
	"github.com/themetester/themetester/color"
	"github.com/themetester/themetester/key"
	"github.com/themetester/themetester/style"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// Icon identifies one symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Mark
	Link
	File
	Directory
	Theme
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "🎉",
		nerd:    style.Fg(color.Green)(""),
		plain:   style.Fg(color.Green)("✓"),
		kaomoji: "(ᵔᴥᵔ)",
		squares: style.Fg(color.Green)("■"),
	},
	Fail: {
		emoji:   "💀",
		nerd:    style.Fg(color.Red)(""),
		plain:   style.Fg(color.Red)("✖"),
		kaomoji: "(╥﹏╥)",
		squares: style.Fg(color.Red)("■"),
	},
	Progress: {
		emoji:   "⏳",
		nerd:    style.Fg(color.Blue)(""),
		plain:   style.Fg(color.Blue)("…"),
		kaomoji: "(・_・)",
		squares: style.Fg(color.Blue)("□"),
	},
	Mark: {
		emoji:   "👉",
		nerd:    style.Fg(color.Purple)(""),
		plain:   style.Fg(color.Purple)(">"),
		kaomoji: "(☞ﾟヮﾟ)☞",
		squares: style.Fg(color.Purple)("▸"),
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "@",
		kaomoji: "(っ◔◡◔)っ",
		squares: "▤",
	},
	File: {
		emoji:   "📄",
		nerd:    "",
		plain:   "-",
		kaomoji: "(・ω・)",
		squares: "▫",
	},
	Directory: {
		emoji:   "📁",
		nerd:    style.Fg(color.Blue)(""),
		plain:   style.Fg(color.Blue)("+"),
		kaomoji: "(◕‿◕)",
		squares: style.Fg(color.Blue)("▪"),
	},
	Theme: {
		emoji:   "🎨",
		nerd:    style.Fg(color.Yellow)(""),
		plain:   style.Fg(color.Yellow)("*"),
		kaomoji: "(ﾉ◕ヮ◕)ﾉ*:･ﾟ✧",
		squares: style.Fg(color.Yellow)("◆"),
	},
}

// Get returns the rendered symbol for i.
func Get(i Icon) string {
	return icons[i].Get()
}
