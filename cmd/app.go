package cmd

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/constant"
	"github.com/themetester/themetester/filesystem"
	"github.com/themetester/themetester/key"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/network"
	"github.com/themetester/themetester/playground"
	"github.com/themetester/themetester/preview"
	"github.com/themetester/themetester/query"
	"github.com/themetester/themetester/registry"
	"github.com/themetester/themetester/settings"
	"github.com/themetester/themetester/vfs"
	"github.com/themetester/themetester/where"
)

// playgroundArg selects the bundled sample workspace instead of a package.
const playgroundArg = "playground"

// mounts holds the trees mounted during this run.
var mounts = playground.NewMounts()

func currentHost() preview.Host {
	return preview.Host{
		Web:    viper.GetBool(key.HostWeb),
		Remote: viper.GetString(key.HostRemote),
	}
}

// newSource routes package locations by scheme. The S3 client is only built
// when an s3:// location is first read.
func newSource() backing.Source {
	httpSource := &backing.HTTPSource{
		Client: network.Client,
		Header: http.Header{"X-Client-Name": {constant.ClientName}},
	}

	var (
		s3Once   sync.Once
		s3Source backing.Source
		s3Err    error
	)
	lazyS3 := backing.SourceFunc(func(ctx context.Context, loc backing.Location) ([]byte, error) {
		s3Once.Do(func() {
			s3Source, s3Err = backing.NewS3Source(ctx, backing.S3Config{
				Region:   viper.GetString(key.BackingS3Region),
				Endpoint: viper.GetString(key.BackingS3Endpoint),
			})
		})
		if s3Err != nil {
			return nil, &backing.FetchError{Location: loc, Err: s3Err}
		}
		return s3Source.ReadFile(ctx, loc)
	})

	return backing.NewRouter().
		Handle(httpSource, backing.SchemeHTTP, backing.SchemeHTTPS).
		Handle(&backing.AferoSource{Fs: filesystem.API()}, backing.SchemeFile).
		Handle(lazyS3, backing.SchemeS3)
}

func newMarketplace() *marketplace.Client {
	return marketplace.New(marketplace.Options{
		GalleryURL:      viper.GetString(key.MarketplaceGalleryURL),
		ClientID:        viper.GetString(key.MarketplaceClientID),
		PackageTemplate: viper.GetString(key.BackingUnpkgTemplate),
		Source:          newSource(),
		CachePath:       where.Versions(),
	})
}

func newRegistry() *registry.Registry {
	return registry.New(where.Extensions())
}

func newSlot() *settings.FileSlot {
	return settings.NewFileSlot(where.Settings(), viper.GetString(key.PreviewSetting))
}

func newPreviewer() *preview.Previewer {
	host := currentHost()
	return &preview.Previewer{
		Registry:    newRegistry(),
		Marketplace: newMarketplace(),
		Slot:        newSlot(),
		Host:        host,
		Opener: &playground.Opener{
			Mounts: mounts,
			Host:   host,
			Header: viper.GetBool(key.PlaygroundInjectHeader),
		},
	}
}

// parseLocationArg accepts either a location or a link to one.
func parseLocationArg(arg string) (preview.Location, error) {
	if strings.Contains(arg, "://") {
		return preview.ParseURL(arg)
	}
	return preview.ParseLocation(arg)
}

// openTree resolves arg to a browsable tree: the sample workspace or the
// files of a package. The package is nil for the sample workspace.
func openTree(ctx context.Context, arg string) (*vfs.Provider, *marketplace.Package, error) {
	if arg == playgroundArg {
		return playground.Sample(), nil, nil
	}

	loc, err := parseLocationArg(arg)
	if err != nil {
		return nil, nil, err
	}

	pkg, err := newPreviewer().Resolve(ctx, loc)
	if err != nil {
		return nil, nil, err
	}

	provider := vfs.NewProvider(constant.SchemePackage, backing.Root(pkg.Source, pkg.Root))
	return provider, pkg, nil
}

func completeLocations(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	records, _ := newRegistry().List()
	known := lo.FilterMap(records, func(r registry.Record, _ int) (string, bool) {
		return r.Coordinate.ID(), strings.HasPrefix(r.Coordinate.ID(), toComplete)
	})
	return lo.Uniq(append(query.SuggestMany(toComplete), known...)), cobra.ShellCompDirectiveNoFileComp
}
