package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coryo/plexdesk/internal/catalog"
)

// Settings persists small client state between sessions: last server and
// user, session token, per-server shortcuts, and last volume.
type Settings struct {
	mu   sync.Mutex
	path string
	data settingsData
}

type settingsData struct {
	LastServer string                                 `json:"lastServer,omitempty"`
	LastUser   string                                 `json:"lastUser,omitempty"`
	Token      string                                 `json:"token,omitempty"`
	Volume     int                                    `json:"volume"`
	Shortcuts  map[string]map[string]catalog.Location `json:"shortcuts,omitempty"`
}

// OpenSettings loads settings from path, creating an empty store if the
// file does not exist.
func OpenSettings(path string) (*Settings, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path required")
	}

	settings := &Settings{path: path, data: settingsData{Volume: 100}}
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &settings.data); err != nil {
		return nil, err
	}
	return settings, nil
}

// DefaultSettingsPath returns the default settings location.
func DefaultSettingsPath() (string, error) {
	dir, err := defaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Session returns the persisted server, user and token.
func (s *Settings) Session() (server string, user string, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastServer, s.data.LastUser, s.data.Token
}

// SetSession persists the server, user and token after a sign-in.
func (s *Settings) SetSession(server string, user string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.LastServer = server
	s.data.LastUser = user
	s.data.Token = token
	return s.saveLocked()
}

// Volume returns the persisted volume (0-100).
func (s *Settings) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Volume
}

// SetVolume persists the volume.
func (s *Settings) SetVolume(volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Volume = volume
	return s.saveLocked()
}

// Shortcuts returns the shortcut map for a server.
func (s *Settings) Shortcuts(serverID string) map[string]catalog.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]catalog.Location{}
	for name, loc := range s.data.Shortcuts[serverID] {
		out[name] = loc
	}
	return out
}

// AddShortcut saves a named location for a server.
func (s *Settings) AddShortcut(serverID string, name string, loc catalog.Location) error {
	if name == "" {
		return errors.New("shortcut name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Shortcuts == nil {
		s.data.Shortcuts = map[string]map[string]catalog.Location{}
	}
	if s.data.Shortcuts[serverID] == nil {
		s.data.Shortcuts[serverID] = map[string]catalog.Location{}
	}
	s.data.Shortcuts[serverID][name] = loc
	return s.saveLocked()
}

// RemoveShortcut deletes a named location for a server.
func (s *Settings) RemoveShortcut(serverID string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shortcuts := s.data.Shortcuts[serverID]; shortcuts != nil {
		delete(shortcuts, name)
	}
	return s.saveLocked()
}

func (s *Settings) saveLocked() error {
	payload, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.tmp.%d", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
