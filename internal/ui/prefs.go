package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"eatlog/internal/model"
	"eatlog/internal/view"
)

// ListPrefs stores the list screen's sort and filter between runs.
type ListPrefs struct {
	SortKey       view.SortKey         `json:"sort_key"`
	Type          model.ExperienceType `json:"type,omitempty"`
	FavoritesOnly bool                 `json:"favorites_only,omitempty"`
}

// UIPreferences stores persisted app preferences.
type UIPreferences struct {
	List ListPrefs `json:"list"`
}

func defaultUIPreferences() UIPreferences {
	return UIPreferences{List: ListPrefs{SortKey: view.SortDate}}
}

// loadUIPreferences reads path. A missing or unreadable file yields defaults.
func loadUIPreferences(path string) UIPreferences {
	if path == "" {
		return defaultUIPreferences()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultUIPreferences()
	}

	prefs := defaultUIPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultUIPreferences()
	}
	key, err := view.ParseSortKey(string(prefs.List.SortKey))
	if err != nil {
		key = view.SortDate
	}
	prefs.List.SortKey = key
	if prefs.List.Type != "" && !prefs.List.Type.Valid() {
		prefs.List.Type = ""
	}
	return prefs
}

func saveUIPreferences(path string, prefs UIPreferences) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}
