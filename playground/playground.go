// Package playground serves the sample workspace a previewed theme is shown
// on, and keeps track of the virtual filesystems mounted while a preview is
// pending.
package playground

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/vfs"
)

//go:embed sample
var sampleFS embed.FS

// Readme is the sample file the preview header is written to.
const Readme = "/readme.md"

var sampleSource = &backing.AferoSource{
	Fs:       afero.FromIOFS{FS: lo.Must(fs.Sub(sampleFS, "sample"))},
	Relative: true,
}

// Sample returns a fresh provider over the bundled sample workspace. Writes
// stay in memory and are not shared between providers.
func Sample() *vfs.Provider {
	return vfs.NewProvider(constant.SchemePlayground, backing.Root(sampleSource, backing.EmbedLocation("/")))
}

// InjectHeader prepends a banner naming the previewed theme to the sample
// readme.
func InjectHeader(ctx context.Context, provider *vfs.Provider, settingsID, product string) error {
	readme, err := provider.ReadFile(ctx, Readme)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("# %s\n\nThis is the *%s* theme in **%s**!\n\n---\n\n", settingsID, settingsID, product)
	return provider.WriteFile(ctx, Readme, append([]byte(header), readme...), vfs.WriteOptions{Overwrite: true})
}
