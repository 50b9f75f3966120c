// Package settings stores hanlift user settings outside any project.
//
// Credentials for the translation service live in the XDG data directory:
//
//	$XDG_DATA_HOME/hanlift/auth.json  (default: ~/.local/share/hanlift/)
//
// The file is a JSON object keyed by service ID. File permissions are 0600.
//
// Lookup order for credentials:
//  1. --app-id / --secret-key flags
//  2. HANLIFT_APP_ID / HANLIFT_SECRET_KEY environment variables
//  3. This credential store
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const (
	dataDirName = "hanlift"
	fileName    = "auth.json"

	// Baidu is the service ID of the Baidu general translation API.
	Baidu = "baidu"

	// EnvAppID and EnvSecret name the environment overrides.
	EnvAppID  = "HANLIFT_APP_ID"
	EnvSecret = "HANLIFT_SECRET_KEY"
)

// ---------------------------------------------------------------------------
// Entry types
// ---------------------------------------------------------------------------

// Info is the entry stored per service in auth.json.
type Info struct {
	// Type is "api" for app id / secret pairs.
	Type  string `json:"type"`
	AppID string `json:"appId,omitempty"`
	Key   string `json:"key,omitempty"`
}

// IsAPI reports whether this is an app id / secret entry.
func (i *Info) IsAPI() bool {
	return i.Type == "api"
}

// Store holds all service credentials, keyed by service ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for hanlift.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// DataDir returns the hanlift data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	// atomic.WriteFile keeps the mode of a replaced file only.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("securing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the entry of a service, or nil if not found.
func Get(service string) *Info {
	return Load()[service]
}

// Set stores an entry for a service (upsert).
func Set(service string, info *Info) error {
	store := Load()
	store[service] = info
	return Save(store)
}

// Remove deletes the credentials of a service.
func Remove(service string) error {
	store := Load()
	if _, ok := store[service]; !ok {
		return nil
	}
	delete(store, service)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// API key helpers
// ---------------------------------------------------------------------------

// SetAPIKey stores an app id and secret for a service.
func SetAPIKey(service, appID, secret string) error {
	return Set(service, &Info{Type: "api", AppID: appID, Key: secret})
}

// GetAPIKey returns the stored app id and secret of a service. Both are
// empty if nothing is stored.
func GetAPIKey(service string) (appID, secret string) {
	info := Get(service)
	if info == nil || !info.IsAPI() {
		return "", ""
	}
	return info.AppID, info.Key
}

// ResolveAPIKey picks the credentials to use: flag values first, then the
// environment, then the store. Each of the pair resolves on its own.
func ResolveAPIKey(service, flagAppID, flagSecret string) (appID, secret string) {
	storedID, storedSecret := GetAPIKey(service)
	return firstNonEmpty(flagAppID, os.Getenv(EnvAppID), storedID),
		firstNonEmpty(flagSecret, os.Getenv(EnvSecret), storedSecret)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
