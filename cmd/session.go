package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func sessionPath(dataDir string) string {
	return filepath.Join(dataDir, "session")
}

func saveSession(dataDir, token string) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	// Owner read/write only.
	return os.WriteFile(sessionPath(dataDir), []byte(strings.TrimSpace(token)+"\n"), 0o600)
}

// loadSession returns the saved session token, or "" when there is none.
func loadSession(dataDir string) (string, error) {
	data, err := os.ReadFile(sessionPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func clearSession(dataDir string) error {
	err := os.Remove(sessionPath(dataDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// signInSettings remembers the last email used on the sign-in screen.
type signInSettings struct {
	Email string `json:"email"`
}

func signInSettingsPath(dataDir string) string {
	return filepath.Join(dataDir, "signin.json")
}

func loadSignInSettings(dataDir string) (signInSettings, error) {
	data, err := os.ReadFile(signInSettingsPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return signInSettings{}, nil
		}
		return signInSettings{}, err
	}

	var settings signInSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return signInSettings{}, err
	}
	return settings, nil
}

func saveSignInSettings(dataDir string, settings signInSettings) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(signInSettingsPath(dataDir), data, 0o600)
}
