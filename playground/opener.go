package playground

import (
	"context"
	"fmt"

	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/preview"
	"github.com/themetester/themetester/vfs"
)

// Opener mounts the package under preview next to a fresh sample workspace.
type Opener struct {
	Mounts *Mounts
	Host   preview.Host
	// Header enables the readme banner naming the previewed theme.
	Header bool
}

// Open mounts the package tree under the package scheme and the sample
// workspace under the playground scheme. The package tree is only listed on
// demand, so nothing is fetched here beyond what the header needs.
func (o *Opener) Open(ctx context.Context, view preview.View) error {
	if view.Package == nil || view.Package.Source == nil {
		return fmt.Errorf("open %s: package has no content source", view.Location)
	}

	pkg := vfs.NewProvider(constant.SchemePackage, backing.Root(view.Package.Source, view.Package.Root))
	o.Mounts.Register(pkg)

	sample := Sample()
	o.Mounts.Register(sample)

	log.WithField("package", view.Package.Root.String()).Infof("mounted %s", pkg.URI("/"))

	if !o.Header {
		return nil
	}
	if err := InjectHeader(ctx, sample, view.SettingsID, o.Host.ProductName()); err != nil {
		return fmt.Errorf("inject header: %w", err)
	}
	return nil
}
