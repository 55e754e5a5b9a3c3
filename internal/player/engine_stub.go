//go:build !gstreamer

package player

import "errors"

var errNoGst = errors.New("gstreamer build tag not enabled")

// GstEngine is a stub when the gstreamer tag is not enabled.
type GstEngine struct{}

// NewGstEngine returns an error when the gstreamer build tag is missing.
func NewGstEngine(pipeline string, device string) (*GstEngine, error) {
	return nil, errNoGst
}

func (e *GstEngine) Play(url string) error { return errNoGst }

func (e *GstEngine) Stop() error { return errNoGst }

func (e *GstEngine) Seek(positionMS int64, mode SeekMode) error { return errNoGst }

func (e *GstEngine) SetProperty(name string, value any) error { return errNoGst }

func (e *GstEngine) GetProperty(name string) (any, error) { return nil, ErrEngineUnavailable }

func (e *GstEngine) PlaylistAppend(url string) error { return errNoGst }

func (e *GstEngine) PlaylistRemove(index int) error { return errNoGst }

func (e *GstEngine) PlaylistCount() (int, error) { return 0, nil }

func (e *GstEngine) Events() <-chan Event { return nil }

func (e *GstEngine) Close() error { return nil }
