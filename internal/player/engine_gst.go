//go:build gstreamer

package player

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
)

// GstEngine implements Engine on top of a GStreamer pipeline template.
// Position is tracked against the wall clock between state changes; the
// event stream is synthesized from pipeline lifecycle plus a tick timer.
type GstEngine struct {
	mu       sync.Mutex
	pipeline string
	device   string
	volume   float64
	current  *gst.Element
	playlist []string

	durationMS int64
	startedAt  time.Time
	pausedAt   time.Time
	offsetMS   int64
	playing    bool

	events chan Event
	done   chan struct{}
	closed bool
}

var gstInitOnce sync.Once

// NewGstEngine creates a GStreamer-backed engine from a pipeline template
// containing {url}, {device} and {volume} placeholders.
func NewGstEngine(pipeline string, device string) (*GstEngine, error) {
	if strings.TrimSpace(pipeline) == "" {
		return nil, errors.New("pipeline template required")
	}
	gstInitOnce.Do(func() {
		gst.Init(nil)
	})

	engine := &GstEngine{
		pipeline: pipeline,
		device:   device,
		volume:   1.0,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
	go engine.tickLoop()
	return engine, nil
}

func (e *GstEngine) Play(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.stopCurrentLocked(); err != nil {
		return err
	}

	template := e.pipeline
	template = strings.ReplaceAll(template, "{url}", url)
	template = strings.ReplaceAll(template, "{device}", e.device)
	template = strings.ReplaceAll(template, "{volume}", fmt.Sprintf("%0.2f", e.volume))

	el, err := gst.ParseLaunch(template)
	if err != nil {
		return err
	}
	if err := el.SetState(gst.StatePlaying); err != nil {
		return err
	}

	e.current = el
	e.offsetMS = 0
	e.startedAt = time.Now()
	e.playing = true
	e.emit(Event{Kind: EventFileLoaded})
	return nil
}

func (e *GstEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopCurrentLocked()
}

func (e *GstEngine) Seek(positionMS int64, mode SeekMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return ErrEngineUnavailable
	}
	target := positionMS
	if mode == SeekRelative {
		target = e.positionLocked() + positionMS
	}
	if target < 0 {
		target = 0
	}
	if err := e.current.SeekSimple(gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagKeyUnit, target*int64(time.Millisecond)); err != nil {
		return err
	}
	e.offsetMS = target
	e.startedAt = time.Now()
	return nil
}

func (e *GstEngine) SetProperty(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch name {
	case PropVolume:
		level, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("volume must be numeric")
		}
		e.volume = float64(level) / 100.0
		if e.current != nil {
			_ = e.current.SetProperty("volume", e.volume)
		}
		e.emit(Event{Kind: EventPropertyChange, Property: PropVolume, Int: level})
		return nil
	case PropPause:
		paused, _ := value.(bool)
		if e.current == nil {
			return ErrEngineUnavailable
		}
		if paused {
			if err := e.current.SetState(gst.StatePaused); err != nil {
				return err
			}
			e.offsetMS = e.positionLocked()
			e.playing = false
			e.emit(Event{Kind: EventPaused})
		} else {
			if err := e.current.SetState(gst.StatePlaying); err != nil {
				return err
			}
			e.startedAt = time.Now()
			e.playing = true
			e.emit(Event{Kind: EventUnpaused})
		}
		return nil
	case PropDuration:
		ms, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("duration must be numeric")
		}
		e.durationMS = ms
		e.emit(Event{Kind: EventPropertyChange, Property: PropDuration, Int: ms})
		return nil
	default:
		if e.current == nil {
			return ErrEngineUnavailable
		}
		return e.current.SetProperty(name, value)
	}
}

func (e *GstEngine) GetProperty(name string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch name {
	case PropPlaybackTime:
		if e.current == nil {
			return nil, ErrEngineUnavailable
		}
		return e.positionLocked(), nil
	case PropDuration:
		if e.durationMS <= 0 {
			return nil, ErrEngineUnavailable
		}
		return e.durationMS, nil
	case PropVolume:
		return int64(e.volume * 100), nil
	default:
		return nil, ErrEngineUnavailable
	}
}

func (e *GstEngine) PlaylistAppend(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playlist = append(e.playlist, url)
	return nil
}

func (e *GstEngine) PlaylistRemove(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.playlist) {
		return errors.New("index out of range")
	}
	e.playlist = append(e.playlist[:index], e.playlist[index+1:]...)
	return nil
}

func (e *GstEngine) PlaylistCount() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.playlist), nil
}

func (e *GstEngine) Events() <-chan Event {
	return e.events
}

func (e *GstEngine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	_ = e.stopCurrentLocked()
	close(e.done)
	e.emit(Event{Kind: EventShutdown})
	close(e.events)
	e.mu.Unlock()
	return nil
}

func (e *GstEngine) tickLoop() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.closed || e.current == nil || !e.playing {
				e.mu.Unlock()
				continue
			}
			pos := e.positionLocked()
			if e.durationMS > 0 && pos >= e.durationMS {
				_ = e.stopCurrentLocked()
				e.emit(Event{Kind: EventEndOfFile})
				e.mu.Unlock()
				continue
			}
			e.emit(Event{Kind: EventPropertyChange, Property: PropPlaybackTime, Int: pos})
			e.mu.Unlock()
		}
	}
}

func (e *GstEngine) positionLocked() int64 {
	if !e.playing {
		return e.offsetMS
	}
	return e.offsetMS + time.Since(e.startedAt).Milliseconds()
}

func (e *GstEngine) stopCurrentLocked() error {
	if e.current == nil {
		return nil
	}
	_ = e.current.SetState(gst.StateNull)
	e.current = nil
	e.playing = false
	e.offsetMS = 0
	return nil
}

func (e *GstEngine) emit(event Event) {
	select {
	case e.events <- event:
	default:
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
