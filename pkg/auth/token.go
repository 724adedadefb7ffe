// Package auth stores the bearer token used to fetch remote model artifacts.
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "scorecard"
	keyringUser    = "artifact_token"
	tokenFileName  = "artifact_token"
)

// ErrNoToken is returned when neither the keychain nor the token file has a token.
var ErrNoToken = errors.New("no artifact token stored")

// SaveToken stores token in the OS keychain, falling back to a 0600 file in dir.
func SaveToken(dir, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token required")
	}

	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTokenFile(dir, token)
	}

	// file copy from an earlier fallback is stale now
	removeTokenFile(dir)
	return nil
}

// GetToken returns the stored token, migrating a file token into the
// keychain when possible.
func GetToken(dir string) (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	token, err = getTokenFile(dir)
	if err != nil {
		return "", err
	}

	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Debug("migrated token from file to OS keychain")
		removeTokenFile(dir)
	}

	return token, nil
}

// DeleteToken removes the token from both the keychain and dir.
func DeleteToken(dir string) error {
	if err := keyring.Delete(keyringService, keyringUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain delete failed", "error", err)
	}
	if err := os.Remove(tokenPath(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

func tokenPath(dir string) string {
	return filepath.Join(dir, tokenFileName)
}

func saveTokenFile(dir, token string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating token dir %s: %w", dir, err)
	}
	p := tokenPath(dir)
	if err := os.WriteFile(p, []byte(token), 0600); err != nil {
		return fmt.Errorf("writing token file %s: %w", p, err)
	}
	return nil
}

func getTokenFile(dir string) (string, error) {
	p := tokenPath(dir)
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("reading token file %s: %w", p, err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func removeTokenFile(dir string) {
	if err := os.Remove(tokenPath(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("removing token file", "error", err)
	}
}
