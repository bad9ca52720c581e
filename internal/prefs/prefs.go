// Package prefs persists user interface preferences in the settings table.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/filter"
)

const settingKey = "preferences"

type ViewDensity string

const (
	DensityComfortable ViewDensity = "comfortable"
	DensityCompact     ViewDensity = "compact"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences survive restarts. The filter state does not.
type Preferences struct {
	SortBy         filter.SortBy `json:"sortBy"`
	ViewDensity    ViewDensity   `json:"viewDensity"`
	SidebarVisible bool          `json:"sidebarVisible"`
	Theme          Theme         `json:"theme"`
	FocusMode      bool          `json:"focusMode"`
}

// Store is the subset of storage.Provider preferences need.
type Store interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Default returns the preferences of a fresh install.
func Default() Preferences {
	return Preferences{
		SortBy:         filter.ModifiedDesc,
		ViewDensity:    DensityComfortable,
		SidebarVisible: true,
		Theme:          ThemeLight,
	}
}

// Validate implements validation.Validatable.
func (p Preferences) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.SortBy, validation.Required, validation.In(filter.SortKeys()...)),
		validation.Field(&p.ViewDensity, validation.Required, validation.In(DensityComfortable, DensityCompact)),
		validation.Field(&p.Theme, validation.Required, validation.In(ThemeLight, ThemeDark)),
	)
}

// Load reads the stored preferences. Missing fields and a missing record
// fall back to Default; an unreadable or invalid record is replaced by
// Default as well.
func Load(ctx context.Context, store Store) (Preferences, error) {
	raw, err := store.GetSetting(ctx, settingKey)
	if errors.Is(err, apperr.ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("prefs: load: %w", err)
	}
	p := Default()
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Validate() != nil {
		return Default(), nil
	}
	return p, nil
}

// Save validates and stores p.
func Save(ctx context.Context, store Store, p Preferences) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("prefs: save: %w: %w", apperr.ErrInvalidInput, err)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("prefs: save: %w", err)
	}
	if err := store.SetSetting(ctx, settingKey, string(raw)); err != nil {
		return fmt.Errorf("prefs: save: %w", err)
	}
	return nil
}
