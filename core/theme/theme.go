package theme

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// Mode is the user-selected display mode.
type Mode string

const (
	ModeLight  Mode = "light"
	ModeDark   Mode = "dark"
	ModeSystem Mode = "system"
)

// Scheme is one of the closed color palette.
type Scheme string

const (
	SchemeIndigo  Scheme = "indigo"
	SchemeEmerald Scheme = "emerald"
	SchemeRose    Scheme = "rose"
	SchemeSlate   Scheme = "slate"
)

var (
	ErrInvalidMode   = errors.New("invalid theme mode")
	ErrInvalidScheme = errors.New("invalid color scheme")

	allSchemes = map[Scheme]struct{}{SchemeIndigo: {}, SchemeEmerald: {}, SchemeRose: {}, SchemeSlate: {}}
)

// fixed persistence keys
const (
	modeKey   = "shule.theme.mode"
	schemeKey = "shule.theme.scheme"
)

// Applier receives the computed (effectiveMode, scheme) pair after every state
// change. Applying them (e.g. as document-root attributes) is the rendering
// collaborator's responsibility; the store never reads back from it.
type Applier interface {
	Apply(effective Mode, scheme Scheme)
}

// SystemModeFunc reports the OS color-scheme preference, light or dark.
type SystemModeFunc func() Mode

// Store owns the ThemeState: two persisted scalars (mode, colorScheme) and a
// derived effectiveMode. Persistence is best effort; storage-write failures
// are swallowed.
type Store struct {
	keeper     core.Keeper
	applier    Applier
	systemMode SystemModeFunc
	logger     core.Logger

	mu        sync.RWMutex
	mode      Mode
	scheme    Scheme
	effective Mode
}

func NewStore(keeper core.Keeper, applier Applier, systemMode SystemModeFunc, logger core.Logger, conf *core.Config) *Store {
	if systemMode == nil {
		systemMode = func() Mode { return ModeLight }
	}
	s := &Store{
		keeper:     keeper,
		applier:    applier,
		systemMode: systemMode,
		logger:     logger,
		mode:       ModeSystem,
		scheme:     SchemeIndigo,
	}
	if m := Mode(conf.Theme.DefaultMode); validMode(m) {
		s.mode = m
	}
	if c := Scheme(conf.Theme.DefaultScheme); validScheme(c) {
		s.scheme = c
	}
	s.effective = s.deriveEffective(s.mode)
	return s
}

// Initialize loads persisted scalars, falling back to defaults on missing or
// unreadable values, then applies the state.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if raw, err := s.keeper.Get(ctx, modeKey); err == nil {
		if m := Mode(raw); validMode(m) {
			s.mode = m
		}
	} else if errors.Cause(err) != core.ErrKeyNotFound {
		s.logger.Warn(fmt.Sprintf("loading persisted theme mode: %v", err))
	}
	if raw, err := s.keeper.Get(ctx, schemeKey); err == nil {
		if c := Scheme(raw); validScheme(c) {
			s.scheme = c
		}
	} else if errors.Cause(err) != core.ErrKeyNotFound {
		s.logger.Warn(fmt.Sprintf("loading persisted color scheme: %v", err))
	}
	s.effective = s.deriveEffective(s.mode)
	s.mu.Unlock()

	s.apply()
}

// SetMode updates the display mode. The effective mode is re-evaluated at set
// time when the mode is "system"; the OS preference is not watched afterwards.
func (s *Store) SetMode(ctx context.Context, mode Mode) error {
	if !validMode(mode) {
		return ErrInvalidMode
	}

	s.mu.Lock()
	s.mode = mode
	s.effective = s.deriveEffective(mode)
	s.mu.Unlock()

	s.persist(ctx)
	s.apply()
	return nil
}

// SetColorScheme updates the color scheme.
func (s *Store) SetColorScheme(ctx context.Context, scheme Scheme) error {
	if !validScheme(scheme) {
		return ErrInvalidScheme
	}

	s.mu.Lock()
	s.scheme = scheme
	s.mu.Unlock()

	s.persist(ctx)
	s.apply()
	return nil
}

// Toggle flips strictly between light and dark; it never sets system.
func (s *Store) Toggle(ctx context.Context) {
	next := ModeDark
	if s.EffectiveMode() == ModeDark {
		next = ModeLight
	}
	_ = s.SetMode(ctx, next)
}

func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Store) ColorScheme() Scheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheme
}

// EffectiveMode is the mode itself for light/dark, or the OS preference
// sampled the last time the mode was set to system.
func (s *Store) EffectiveMode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.effective
}

func (s *Store) deriveEffective(mode Mode) Mode {
	if mode == ModeSystem {
		if m := s.systemMode(); validMode(m) && m != ModeSystem {
			return m
		}
		return ModeLight
	}
	return mode
}

// persist writes both scalars; failures are swallowed (non-critical UI prefs).
func (s *Store) persist(ctx context.Context) {
	s.mu.RLock()
	mode, scheme := s.mode, s.scheme
	s.mu.RUnlock()

	if err := s.keeper.Set(ctx, modeKey, string(mode)); err != nil {
		s.logger.Warn(fmt.Sprintf("persisting theme mode: %v", err))
	}
	if err := s.keeper.Set(ctx, schemeKey, string(scheme)); err != nil {
		s.logger.Warn(fmt.Sprintf("persisting color scheme: %v", err))
	}
}

func (s *Store) apply() {
	if s.applier == nil {
		return
	}
	s.mu.RLock()
	effective, scheme := s.effective, s.scheme
	s.mu.RUnlock()
	s.applier.Apply(effective, scheme)
}

func validMode(m Mode) bool {
	return m == ModeLight || m == ModeDark || m == ModeSystem
}

func validScheme(c Scheme) bool {
	_, ok := allSchemes[c]
	return ok
}
