// Package preview applies a theme speculatively and lets the user keep or
// undo it.
//
// A preview walks Idle, ResolvingManifest, Validating, Applying and
// Previewing, then waits in a Session until exactly one of Keep or Undo runs.
// Every failure before Applying leaves the setting untouched.
package preview

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/mo"
	"github.com/themetester/themetester/backing"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/registry"
	"github.com/themetester/themetester/settings"
)

// State is a step of the preview workflow.
type State int

const (
	Idle State = iota
	ResolvingManifest
	Validating
	Applying
	Previewing
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ResolvingManifest:
		return "resolving manifest"
	case Validating:
		return "validating"
	case Applying:
		return "applying"
	case Previewing:
		return "previewing"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Registry finds extensions without the network and installs new ones.
type Registry interface {
	Find(ctx context.Context, publisher, name string) (mo.Option[*marketplace.Package], error)
	Install(ctx context.Context, pkg *marketplace.Package) (registry.Record, error)
}

// Marketplace resolves extensions that are not installed.
type Marketplace interface {
	Find(ctx context.Context, publisher, name string) (*marketplace.Package, error)
}

// View is what gets opened for inspection while a preview is pending.
type View struct {
	Location   Location
	SettingsID string
	Package    *marketplace.Package
}

// Opener mounts the package tree of a pending preview.
type Opener interface {
	Open(ctx context.Context, view View) error
}

// Previewer runs the preview workflow against one setting slot. At most one
// session should be pending per slot: a second preview would capture the
// first one's speculative value as its prior.
type Previewer struct {
	Registry    Registry
	Marketplace Marketplace
	Slot        settings.Slot
	Host        Host
	// Opener is optional.
	Opener Opener
	// OnState, when set, observes every state transition.
	OnState func(State)
}

func (p *Previewer) enter(state State) {
	log.WithField("state", state.String()).Debugf("preview")
	if p.OnState != nil {
		p.OnState(state)
	}
}

// Preview resolves loc, applies the selected theme and returns the pending
// session. On error nothing has been written to the slot.
func (p *Previewer) Preview(ctx context.Context, loc Location) (session *Session, err error) {
	defer func() {
		if err != nil {
			p.enter(Idle)
		}
	}()

	p.enter(ResolvingManifest)
	pkg, err := p.Resolve(ctx, loc)
	if err != nil {
		return nil, err
	}

	p.enter(Validating)
	settingsID, err := p.validate(pkg, loc)
	if err != nil {
		return nil, err
	}

	p.enter(Applying)
	prior, err := p.Slot.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.Slot.Name(), err)
	}
	if err := p.Slot.Set(ctx, settingsID); err != nil {
		return nil, fmt.Errorf("write %s: %w", p.Slot.Name(), err)
	}
	log.Infof("previewing %s from %s, prior %s", settingsID, pkg.Coordinate, prior.OrElse("<unset>"))

	p.enter(Previewing)
	if p.Opener != nil {
		view := View{Location: loc, SettingsID: settingsID, Package: pkg}
		if err := p.Opener.Open(ctx, view); err != nil {
			log.Warnf("open %s: %v", pkg.Coordinate, err)
		}
	}

	return &Session{
		Location: loc,
		Package:  pkg,
		keep: KeepResolution{
			SettingsID: settingsID,
			Package:    pkg,
			Slot:       p.Slot,
			Registry:   p.Registry,
		},
		undo: UndoResolution{
			SettingsID: settingsID,
			Prior:      prior,
			Slot:       p.Slot,
		},
		onResolved: func() { p.enter(Resolved) },
	}, nil
}

// Resolve finds the package named by loc, first among installed and built-in
// extensions and then on the marketplace. It never touches the slot.
func (p *Previewer) Resolve(ctx context.Context, loc Location) (*marketplace.Package, error) {
	found, err := p.Registry.Find(ctx, loc.Publisher, loc.Name)
	if err != nil {
		log.Warnf("registry lookup of %s: %v", loc.ID(), err)
	}
	if pkg, ok := found.Get(); ok {
		return pkg, nil
	}

	if p.Marketplace == nil {
		return nil, newError(ExtensionNotFound, nil, "Unable to find extension %s.", loc.ID())
	}

	pkg, err := p.Marketplace.Find(ctx, loc.Publisher, loc.Name)
	switch {
	case err == nil:
		return pkg, nil
	case errors.Is(err, marketplace.ErrNotFound):
		return nil, newError(ExtensionNotFound, err, "Unable to find extension %s on the marketplace.", loc.ID())
	case errors.Is(err, marketplace.ErrManifestParse):
		return nil, newError(ManifestParseError, err, "%v", err)
	case errors.Is(err, backing.ErrFetch):
		return nil, newError(BackingFetchError, err, "%v", err)
	default:
		return nil, err
	}
}

func (p *Previewer) validate(pkg *marketplace.Package, loc Location) (string, error) {
	m := pkg.Manifest
	if len(SettingsIDs(m)) == 0 {
		return "", newError(NoArtifacts, nil, "Extension %s (%s) does not contain any color themes.", m.Name, loc.ID())
	}

	if !p.Host.Compatible(m) {
		return "", newError(IncompatibleTarget, nil,
			"The extension %s (%s) is not a web extension and can not be installed in %s.",
			m.Name, loc.ID(), p.Host.ProductName(),
		)
	}

	return Select(m, loc)
}
