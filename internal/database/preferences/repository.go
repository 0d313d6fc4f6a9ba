// Package preferences provides the single-row user settings store.
//
// # Usage
//
//	repo := preferences.NewRepository(eng)
//	speed := 1.5
//	err := repo.Save(entities.PreferencesPatch{TTSSpeed: &speed})
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/storyvoice/bookreader/internal/engine"
	"github.com/storyvoice/bookreader/internal/entities"
)

// Repository handles the singleton preferences row.
type Repository struct {
	eng *engine.Engine
}

// NewRepository creates a new preferences repository.
func NewRepository(eng *engine.Engine) *Repository {
	return &Repository{eng: eng}
}

// Get retrieves the stored preferences. Never saved is (nil, nil); callers
// fall back to entities.DefaultPreferences.
func (r *Repository) Get() (*entities.Preferences, error) {
	data, err := r.eng.Get(engine.PreferencesKey(entities.DefaultPreferencesID))
	if errors.Is(err, engine.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var prefs entities.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return &prefs, nil
}

// Save merges the patch onto the stored row, creating it from defaults on
// first save, and writes the full row back.
func (r *Repository) Save(patch entities.PreferencesPatch) error {
	prefs, err := r.Get()
	if err != nil {
		return err
	}
	if prefs == nil {
		defaults := entities.DefaultPreferences()
		prefs = &defaults
	}
	prefs.Apply(patch)
	prefs.UserID = entities.DefaultPreferencesID

	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return r.eng.Set(engine.PreferencesKey(prefs.UserID), data)
}
