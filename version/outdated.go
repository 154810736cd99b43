package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/log"
)

// LatestFunc looks up the newest published version of publisher.name.
type LatestFunc func(ctx context.Context, publisher, name string) (string, error)

// Update is a newer release of an installed extension.
type Update struct {
	Installed backing.Coordinate
	Latest    string
}

func (u Update) String() string {
	return fmt.Sprintf("%s %s -> %s", u.Installed.ID(), u.Installed.Version, u.Latest)
}

// Outdated returns the coordinates with a newer published version. Lookups
// that fail are logged and reported together; the others are still checked.
func Outdated(ctx context.Context, installed []backing.Coordinate, latest LatestFunc) ([]Update, error) {
	var (
		updates []Update
		errs    []error
	)

	for _, coord := range installed {
		if err := ctx.Err(); err != nil {
			return updates, err
		}

		newest, err := latest(ctx, coord.Publisher, coord.Name)
		if err != nil {
			log.Warnf("latest version of %s: %v", coord.ID(), err)
			errs = append(errs, fmt.Errorf("%s: %w", coord.ID(), err))
			continue
		}

		cmp, err := Compare(newest, coord.Version)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", coord.ID(), err))
			continue
		}

		if cmp > 0 {
			updates = append(updates, Update{Installed: coord, Latest: newest})
		}
	}

	return updates, errors.Join(errs...)
}
