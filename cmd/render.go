package cmd

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/key"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/render"
	"github.com/themetester/themetester/theme"
	"github.com/themetester/themetester/util"
	"github.com/themetester/themetester/vfs"
)

func renderOptions(style *chroma.Style) render.Options {
	options := render.DefaultOptions(util.TerminalWidth(viper.GetInt(key.CliWrap)))
	options.Style = style
	return options
}

// renderFile reads name through provider and renders it for the terminal.
func renderFile(ctx context.Context, provider *vfs.Provider, name string, options render.Options) (string, error) {
	data, err := provider.ReadFile(ctx, name)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return render.Markdown(string(data), options)
	default:
		return render.Code(path.Base(name), string(data), options)
	}
}

// themeStyle loads the contributed theme with the given settings id from the
// package tree and converts it into a highlighter style.
func themeStyle(ctx context.Context, provider *vfs.Provider, manifest *marketplace.Manifest, settingsID string) (*chroma.Style, error) {
	contributed, ok := lo.Find(manifest.Contributes.Themes, func(t marketplace.Theme) bool {
		return t.SettingsID() == settingsID
	})
	if !ok {
		return nil, fmt.Errorf("no theme %q in %s", settingsID, manifest.Title())
	}

	doc, _, err := theme.Load(ctx, provider, contributed.Path)
	if err != nil {
		return nil, err
	}
	return doc.Style()
}
