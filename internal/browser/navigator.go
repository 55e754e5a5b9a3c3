package browser

import (
	"errors"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/coryo/plexdesk/internal/catalog"
)

// ContainerFetcher accepts or rejects a container fetch for a location.
type ContainerFetcher interface {
	Fetch(loc catalog.Location) bool
}

// ShortcutStore persists named locations per server.
type ShortcutStore interface {
	Shortcuts(serverID string) map[string]catalog.Location
	AddShortcut(serverID string, name string, loc catalog.Location) error
	RemoveShortcut(serverID string, name string) error
}

// Navigator owns browsing history and translates navigation intents into
// list model fetches. History lives for one browsing session.
type Navigator struct {
	log       *zap.Logger
	fetcher   ContainerFetcher
	shortcuts ShortcutStore
	serverID  string
	root      catalog.Location
	onPlay    func(catalog.Item)

	mu      sync.Mutex
	history []catalog.Location
}

// NewNavigator creates a navigator seeded with the root location.
func NewNavigator(log *zap.Logger, fetcher ContainerFetcher, shortcuts ShortcutStore, serverID string, root catalog.Location, onPlay func(catalog.Item)) *Navigator {
	return &Navigator{
		log:       log,
		fetcher:   fetcher,
		shortcuts: shortcuts,
		serverID:  serverID,
		root:      root,
		onPlay:    onPlay,
		history:   []catalog.Location{root},
	}
}

// Goto navigates to a location. Relative keys are normalized against the
// current location. After a successful goto the history stack ends with the
// new location; a sort/param-only change at the same key replaces the prior
// entry instead of pushing a new one.
func (n *Navigator) Goto(loc catalog.Location, recordHistory bool) bool {
	n.mu.Lock()
	current := n.history[len(n.history)-1]
	n.mu.Unlock()

	if !strings.HasPrefix(loc.Key, "/") {
		loc.Key = path.Join(current.Key, loc.Key)
	}

	if !n.fetcher.Fetch(loc) {
		return false
	}

	if recordHistory {
		n.mu.Lock()
		if n.history[len(n.history)-1].Key == loc.Key {
			n.history = n.history[:len(n.history)-1]
		}
		n.history = append(n.history, loc)
		n.mu.Unlock()
	}
	return true
}

// Open routes an item: playable media goes to playback, everything else
// becomes a catalog fetch.
func (n *Navigator) Open(item catalog.Item) bool {
	if item.Playable() {
		if n.onPlay == nil {
			return false
		}
		n.onPlay(item)
		return true
	}
	return n.Goto(catalog.Location{Key: item.Key}, true)
}

// Back pops the current location and re-navigates to the previous one.
// No-op when history holds a single entry.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	if len(n.history) <= 1 {
		n.mu.Unlock()
		return false
	}
	target := n.history[len(n.history)-2]
	n.mu.Unlock()

	if !n.fetcher.Fetch(target) {
		return false
	}

	n.mu.Lock()
	n.history = n.history[:len(n.history)-1]
	n.mu.Unlock()
	return true
}

// Home resets history to the root entry and fetches it.
func (n *Navigator) Home() bool {
	if !n.fetcher.Fetch(n.root) {
		return false
	}
	n.mu.Lock()
	n.history = []catalog.Location{n.root}
	n.mu.Unlock()
	return true
}

// Current returns the current location.
func (n *Navigator) Current() catalog.Location {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// Depth returns the history depth.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.history)
}

// AddShortcut saves the current location under a name.
func (n *Navigator) AddShortcut(name string) error {
	if n.shortcuts == nil {
		return errors.New("no shortcut store")
	}
	return n.shortcuts.AddShortcut(n.serverID, name, n.Current())
}

// RemoveShortcut deletes a named shortcut.
func (n *Navigator) RemoveShortcut(name string) error {
	if n.shortcuts == nil {
		return errors.New("no shortcut store")
	}
	return n.shortcuts.RemoveShortcut(n.serverID, name)
}

// GotoShortcut navigates to a named shortcut.
func (n *Navigator) GotoShortcut(name string) bool {
	if n.shortcuts == nil {
		return false
	}
	loc, ok := n.shortcuts.Shortcuts(n.serverID)[name]
	if !ok {
		return false
	}
	return n.Goto(loc, true)
}
