package player

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/coryo/plexdesk/internal/catalog"
)

// Reporter receives timeline report requests. The play queue controller's
// reporter runs them off the control goroutine, best-effort.
type Reporter interface {
	Report(state string, positionMS int64)
}

// QueueSource supplies the next item and stream resolution when playback
// advances.
type QueueSource interface {
	NextItem() (catalog.Item, bool)
	SelectItem(item catalog.Item)
	StreamURL(item catalog.Item) string
}

// Callbacks surface bridge signals to the UI layer. Nil callbacks are
// skipped.
type Callbacks struct {
	Started         func()
	Stopped         func()
	TimeChanged     func(positionMS int64)
	DurationChanged func(durationMS int64)
	VolumeChanged   func(level int)
	TracksChanged   func(tracks []Track, hasVideo bool)
	PersistVolume   func(level int)
}

// BridgeConfig configures a bridge.
type BridgeConfig struct {
	// TimelineThrottle is the number of playback-time ticks between
	// timeline reports.
	TimelineThrottle int
}

// Bridge wraps the engine's event stream into a dispatch table and
// advances the playback state machine. After the shutdown event the
// bridge is inert.
type Bridge struct {
	log      *zap.Logger
	engine   Engine
	queue    QueueSource
	reporter Reporter
	cb       Callbacks
	throttle int
	handlers map[EventKind]func(Event)

	mu       sync.Mutex
	state    State
	resumeMS int64
	next     *catalog.Item
	tick     int
	volume   int
	seeking  bool
}

// NewBridge creates a bridge over an engine.
func NewBridge(log *zap.Logger, engine Engine, queue QueueSource, reporter Reporter, cb Callbacks, cfg BridgeConfig) *Bridge {
	if cfg.TimelineThrottle <= 0 {
		cfg.TimelineThrottle = 500
	}
	b := &Bridge{
		log:      log,
		engine:   engine,
		queue:    queue,
		reporter: reporter,
		cb:       cb,
		throttle: cfg.TimelineThrottle,
		state:    StateIdle,
		volume:   100,
	}
	b.handlers = map[EventKind]func(Event){
		EventFileLoaded:     b.onFileLoaded,
		EventEndOfFile:      b.onEndOfFile,
		EventPropertyChange: b.onPropertyChange,
		EventPaused:         b.onPaused,
		EventUnpaused:       b.onUnpaused,
		EventLogMessage:     b.onLogMessage,
		EventShutdown:       b.onShutdown,
	}
	return b
}

// Run drains the engine event stream until shutdown or ctx end.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-b.engine.Events():
			if !ok {
				return nil
			}
			if handler := b.handlers[event.Kind]; handler != nil {
				handler(event)
			}
			if event.Kind == EventShutdown {
				return nil
			}
		}
	}
}

// PlayItem loads and plays an item, arming its stored resume offset.
func (b *Bridge) PlayItem(item catalog.Item) error {
	b.mu.Lock()
	b.state = StateLoading
	b.resumeMS = item.ViewOffsetMS
	b.tick = 0
	b.mu.Unlock()

	b.queue.SelectItem(item)
	return b.engine.Play(b.queue.StreamURL(item))
}

// RequestNext arms an explicit next item consumed at the next end-of-file.
func (b *Bridge) RequestNext(item catalog.Item) {
	b.mu.Lock()
	b.next = &item
	b.mu.Unlock()
}

// SetSeeking marks whether the user is dragging the seek bar; position
// ticks do not update the displayed time while true.
func (b *Bridge) SetSeeking(seeking bool) {
	b.mu.Lock()
	b.seeking = seeking
	b.mu.Unlock()
}

// SetVolume pushes a UI volume change to the engine.
func (b *Bridge) SetVolume(level int) error {
	b.mu.Lock()
	b.volume = level
	b.mu.Unlock()
	return b.engine.SetProperty(PropVolume, int64(level))
}

// Pause toggles the engine's pause property.
func (b *Bridge) Pause(paused bool) error {
	return b.engine.SetProperty(PropPause, paused)
}

// Seek issues a seek command.
func (b *Bridge) Seek(positionMS int64, mode SeekMode) error {
	return b.engine.Seek(positionMS, mode)
}

// State returns the current playback state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) onFileLoaded(Event) {
	b.mu.Lock()
	resume := b.resumeMS
	b.resumeMS = 0
	b.state = StatePlaying
	b.mu.Unlock()

	if resume > 0 {
		if err := b.engine.Seek(resume, SeekAbsolute); err != nil {
			b.log.Warn("resume seek failed", zap.Error(err))
		}
	}
	if b.cb.Started != nil {
		b.cb.Started()
	}
}

func (b *Bridge) onEndOfFile(Event) {
	b.mu.Lock()
	next := b.next
	b.next = nil
	b.mu.Unlock()

	item, ok := catalog.Item{}, false
	if next != nil {
		item, ok = *next, true
	} else {
		item, ok = b.queue.NextItem()
	}
	if !ok {
		b.mu.Lock()
		b.state = StateIdle
		b.mu.Unlock()
		return
	}
	if err := b.PlayItem(item); err != nil {
		b.log.Warn("advance failed", zap.String("key", item.Key), zap.Error(err))
		b.mu.Lock()
		b.state = StateIdle
		b.mu.Unlock()
	}
}

func (b *Bridge) onPropertyChange(event Event) {
	switch event.Property {
	case PropDuration:
		if b.cb.DurationChanged != nil {
			b.cb.DurationChanged(event.Int)
		}
	case PropVolume:
		b.mu.Lock()
		engineLevel := int(event.Int)
		diff := engineLevel != b.volume
		if diff {
			// The engine is authoritative; reconciling the UI to its
			// value avoids feedback while the user drags the slider.
			b.volume = engineLevel
		}
		b.mu.Unlock()
		if diff && b.cb.VolumeChanged != nil {
			b.cb.VolumeChanged(engineLevel)
		}
	case PropPlaybackTime:
		b.onPlaybackTime(event.Int)
	case PropTrackList:
		hasVideo := false
		for _, track := range event.Tracks {
			if track.Type == "video" {
				hasVideo = true
				break
			}
		}
		if b.cb.TracksChanged != nil {
			b.cb.TracksChanged(event.Tracks, hasVideo)
		}
	}
}

func (b *Bridge) onPlaybackTime(positionMS int64) {
	b.mu.Lock()
	b.tick++
	report := b.tick%b.throttle == 0
	seeking := b.seeking
	state := b.state
	b.mu.Unlock()

	if !seeking && b.cb.TimeChanged != nil {
		b.cb.TimeChanged(positionMS)
	}
	if report {
		b.reporter.Report(state.String(), positionMS)
	}
}

func (b *Bridge) onPaused(Event) {
	b.mu.Lock()
	b.state = StatePaused
	b.mu.Unlock()
	if pos, ok := b.position(); ok {
		b.reporter.Report("paused", pos)
	}
}

func (b *Bridge) onUnpaused(Event) {
	b.mu.Lock()
	b.state = StatePlaying
	b.mu.Unlock()
	if pos, ok := b.position(); ok {
		b.reporter.Report("playing", pos)
	}
}

func (b *Bridge) onLogMessage(event Event) {
	switch event.LogLevel {
	case "error", "fatal":
		b.log.Error(event.LogText)
	case "warn":
		b.log.Warn(event.LogText)
	case "debug", "trace", "v":
		b.log.Debug(event.LogText)
	default:
		b.log.Info(event.LogText)
	}
}

func (b *Bridge) onShutdown(Event) {
	b.mu.Lock()
	volume := b.volume
	b.state = StateStopped
	b.mu.Unlock()

	if b.cb.PersistVolume != nil {
		b.cb.PersistVolume(volume)
	}
	if err := b.engine.Close(); err != nil {
		b.log.Warn("engine close failed", zap.Error(err))
	}
	if b.cb.Stopped != nil {
		b.cb.Stopped()
	}
}

// position reads the engine's time position. An unavailable property means
// there is nothing to report this cycle.
func (b *Bridge) position() (int64, bool) {
	value, err := b.engine.GetProperty(PropPlaybackTime)
	if err != nil {
		return 0, false
	}
	if ms, ok := value.(int64); ok {
		return ms, true
	}
	return 0, false
}
