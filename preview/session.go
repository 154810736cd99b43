package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samber/mo"
	"github.com/themetester/themetester/log"
	"github.com/themetester/themetester/marketplace"
	"github.com/themetester/themetester/settings"
)

// Resolution is one of the two ways a pending preview ends: KeepResolution
// or UndoResolution.
type Resolution interface {
	Apply(ctx context.Context) error
	resolution()
}

// KeepResolution installs the package when needed and asserts the previewed
// theme as the setting value.
type KeepResolution struct {
	SettingsID string
	Package    *marketplace.Package
	Slot       settings.Slot
	Registry   Registry
}

func (KeepResolution) resolution() {}

// Apply installs the package if it is not installed yet, then writes the
// settings id again. A failed install is returned but the setting keeps the
// previewed value.
func (k KeepResolution) Apply(ctx context.Context) error {
	var installErr error
	if !k.Package.Installed {
		if _, err := k.Registry.Install(ctx, k.Package); err != nil {
			installErr = fmt.Errorf("install %s: %w", k.Package.Coordinate, err)
		}
	}

	if err := k.Slot.Set(ctx, k.SettingsID); err != nil {
		return errors.Join(installErr, fmt.Errorf("write %s: %w", k.Slot.Name(), err))
	}
	return installErr
}

// UndoResolution restores the value captured before the preview.
type UndoResolution struct {
	SettingsID string
	Prior      mo.Option[string]
	Slot       settings.Slot
}

func (UndoResolution) resolution() {}

// Apply writes the previewed value and then the captured one, unsetting the
// setting when it was unset before.
func (u UndoResolution) Apply(ctx context.Context) error {
	if err := u.Slot.Set(ctx, u.SettingsID); err != nil {
		return fmt.Errorf("write %s: %w", u.Slot.Name(), err)
	}
	if err := settings.Restore(ctx, u.Slot, u.Prior); err != nil {
		return fmt.Errorf("restore %s: %w", u.Slot.Name(), err)
	}
	return nil
}

// Session is a pending preview. The theme stays applied until Keep or Undo
// runs; dropping a session without calling either leaves it applied.
type Session struct {
	Location Location
	Package  *marketplace.Package

	keep       KeepResolution
	undo       UndoResolution
	onResolved func()

	mu       sync.Mutex
	resolved Resolution
}

// SettingsID is the value the preview wrote.
func (s *Session) SettingsID() string {
	return s.keep.SettingsID
}

// Prior is the value captured before the preview.
func (s *Session) Prior() mo.Option[string] {
	return s.undo.Prior
}

// Keep makes the preview permanent.
func (s *Session) Keep(ctx context.Context) error {
	return s.Resolve(ctx, s.keep)
}

// Undo reverts the preview.
func (s *Session) Undo(ctx context.Context) error {
	return s.Resolve(ctx, s.undo)
}

// Resolve runs r unless the session was already resolved, in which case it
// returns ErrAlreadyResolved and does nothing. A resolution that fails still
// consumes the session.
func (s *Session) Resolve(ctx context.Context, r Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved != nil {
		return ErrAlreadyResolved
	}
	s.resolved = r

	err := r.Apply(ctx)
	if err != nil {
		log.Errorf("resolve %s: %v", s.Location, err)
	}

	if s.onResolved != nil {
		s.onResolved()
	}
	return err
}

// Resolution returns how the session ended, if it did.
func (s *Session) Resolution() mo.Option[Resolution] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolved == nil {
		return mo.None[Resolution]()
	}
	return mo.Some(s.resolved)
}
