// Package player bridges an external media-playback engine into the
// client: the engine's event stream drives a small playback state machine,
// and the play queue stays synchronized with the catalog server.
package player

import "errors"

// ErrEngineUnavailable indicates a property read the engine cannot satisfy
// yet, e.g. asking for the time position before a file is loaded. Callers
// treat it as "nothing to report this cycle".
var ErrEngineUnavailable = errors.New("engine property unavailable")

// EventKind identifies an engine event.
type EventKind int

const (
	EventFileLoaded EventKind = iota
	EventEndOfFile
	EventPropertyChange
	EventPaused
	EventUnpaused
	EventLogMessage
	// EventShutdown is the terminal event; after it the engine emits
	// nothing further.
	EventShutdown
)

// Engine property names used by the bridge.
const (
	PropDuration     = "duration"
	PropVolume       = "volume"
	PropPlaybackTime = "playback-time"
	PropTrackList    = "track-list"
	PropPause        = "pause"
)

// Track describes one audio/subtitle/video stream within the loaded file.
type Track struct {
	ID       int64
	Type     string
	Title    string
	Selected bool
}

// Event is one decoded engine event.
type Event struct {
	Kind     EventKind
	Property string
	Int      int64
	Tracks   []Track
	LogLevel string
	LogText  string
}

// SeekMode selects absolute or relative seeking.
type SeekMode int

const (
	SeekAbsolute SeekMode = iota
	SeekRelative
)

// Engine is the native playback capability the bridge consumes. Commands
// are synchronous; everything the engine decides on its own arrives on the
// Events stream, which closes after EventShutdown.
type Engine interface {
	Play(url string) error
	Stop() error
	Seek(positionMS int64, mode SeekMode) error
	SetProperty(name string, value any) error
	GetProperty(name string) (any, error)

	// The engine keeps an internal playlist mirroring the play queue.
	PlaylistAppend(url string) error
	PlaylistRemove(index int) error
	PlaylistCount() (int, error)

	Events() <-chan Event
	Close() error
}

// State is the bridge's high-level playback state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}
