// Package browser holds the catalog browsing core: the paging list model,
// its fetch workers, and the navigation controller.
package browser

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/coryo/plexdesk/internal/catalog"
)

// EventKind identifies a list model notification.
type EventKind int

const (
	// EventReset fires when a fetch is accepted and the current container
	// is discarded.
	EventReset EventKind = iota
	// EventContainerReplaced fires when the first page of a fresh fetch
	// lands; First/Last cover the delivered rows.
	EventContainerReplaced
	// EventRowsAppended fires when a continuation page lands; previously
	// delivered rows keep their identities and positions.
	EventRowsAppended
	// EventRowChanged fires when a single row's decoration updates.
	EventRowChanged
	// EventFetchFailed fires once when a fetch is abandoned.
	EventFetchFailed
)

// Event is one list model notification.
type Event struct {
	Kind  EventKind
	First int
	Last  int
	Row   int
	Err   error
}

// ModelConfig configures a list model.
type ModelConfig struct {
	PageSize    int
	ThumbWidth  int
	ThumbHeight int
	QueueDepth  int
}

func (cfg *ModelConfig) applyDefaults() {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.ThumbWidth <= 0 {
		cfg.ThumbWidth = 240
	}
	if cfg.ThumbHeight <= 0 {
		cfg.ThumbHeight = 240
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 100
	}
}

// ListModel owns one container, pages it in from the catalog service, and
// dispatches visible-row thumbnail work. At most one page request is
// outstanding at any time.
type ListModel struct {
	log      *zap.Logger
	worker   *containerWorker
	thumbs   *thumbPool
	pageSize int
	events   chan Event

	mu         sync.Mutex
	busy       bool
	generation int
	loc        catalog.Location
	container  *catalog.Container
}

// NewListModel creates a list model over a catalog service and blob cache.
func NewListModel(log *zap.Logger, svc catalog.Service, blobs BlobCache, cfg ModelConfig) *ListModel {
	cfg.applyDefaults()
	return &ListModel{
		log:      log,
		worker:   newContainerWorker(log, svc),
		thumbs:   newThumbPool(log, svc, blobs, cfg.ThumbWidth, cfg.ThumbHeight, cfg.QueueDepth),
		pageSize: cfg.PageSize,
		events:   make(chan Event, 128),
	}
}

// Run drives the model's workers and applies their results until ctx ends.
func (m *ListModel) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.worker.run(ctx)
	}()
	go func() {
		defer wg.Done()
		m.thumbs.run(ctx)
	}()
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-m.worker.results:
			m.applyContainer(res)
		case res := <-m.thumbs.results:
			m.applyThumb(res)
		}
	}
}

// Events returns the model's notification stream.
func (m *ListModel) Events() <-chan Event {
	return m.events
}

// Fetch starts a fresh fetch for a location. It is a no-op returning false
// while another fetch is in flight.
func (m *ListModel) Fetch(loc catalog.Location) bool {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return false
	}
	m.busy = true
	m.generation++
	m.container = nil
	m.loc = loc
	req := containerRequest{
		generation: m.generation,
		start:      0,
		path:       loc.Key,
		sort:       loc.Sort,
		params:     loc.Params,
		pageSize:   m.pageSize,
	}
	m.mu.Unlock()

	m.emit(Event{Kind: EventReset})
	m.worker.requests <- req
	return true
}

// FetchMore requests the next page at the same sort/params. No-op while a
// fetch is in flight or when the container is complete.
func (m *ListModel) FetchMore() bool {
	m.mu.Lock()
	if m.busy || !m.canFetchMoreLocked() {
		m.mu.Unlock()
		return false
	}
	m.busy = true
	// Continue from the held count, not a derived page number, so a
	// short non-final page never causes rows to be re-requested.
	req := containerRequest{
		generation: m.generation,
		start:      len(m.container.Items),
		path:       m.loc.Key,
		sort:       m.loc.Sort,
		params:     m.loc.Params,
		pageSize:   m.pageSize,
	}
	m.mu.Unlock()

	m.worker.requests <- req
	return true
}

// CanFetchMore reports whether the server holds rows beyond the ones held.
func (m *ListModel) CanFetchMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canFetchMoreLocked()
}

func (m *ListModel) canFetchMoreLocked() bool {
	return m.container != nil &&
		len(m.container.Items) > 0 &&
		len(m.container.Items) < m.container.TotalSize
}

// Reset discards the current container and returns the model to empty.
func (m *ListModel) Reset() {
	m.mu.Lock()
	m.generation++
	m.container = nil
	m.busy = false
	m.mu.Unlock()

	m.emit(Event{Kind: EventReset})
}

// Len returns the number of rows held locally.
func (m *ListModel) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.container == nil {
		return 0
	}
	return len(m.container.Items)
}

// TotalSize returns the server-reported full count.
func (m *ListModel) TotalSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.container == nil {
		return 0
	}
	return m.container.TotalSize
}

// Titles returns the container's display titles.
func (m *ListModel) Titles() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.container == nil {
		return "", ""
	}
	return m.container.Title1, m.container.Title2
}

// Item returns the row's item, without its decoration slot.
func (m *ListModel) Item(row int) (catalog.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.rowInBoundsLocked(row) {
		return catalog.Item{}, false
	}
	return m.container.Items[row], true
}

// Decoration returns the row's thumbnail, if one has been delivered.
func (m *ListModel) Decoration(row int) (image.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.rowInBoundsLocked(row) || m.container.Items[row].Thumb == nil {
		return nil, false
	}
	return m.container.Items[row].Thumb, true
}

// Location returns the location of the current fetch.
func (m *ListModel) Location() catalog.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loc
}

// SetVisibleRows enqueues thumbnail work for visible rows that lack a
// decoration. Rows without a thumbnail URL are skipped entirely.
func (m *ListModel) SetVisibleRows(rows []int) {
	m.mu.Lock()
	generation := m.generation
	requests := make([]thumbRequest, 0, len(rows))
	for _, row := range rows {
		if !m.rowInBoundsLocked(row) {
			continue
		}
		item := m.container.Items[row]
		if item.ThumbURL == "" || item.Thumb != nil {
			continue
		}
		requests = append(requests, thumbRequest{generation: generation, row: row, url: item.ThumbURL})
	}
	m.mu.Unlock()

	for _, req := range requests {
		m.thumbs.enqueue(req)
	}
}

func (m *ListModel) rowInBoundsLocked(row int) bool {
	return m.container != nil && row >= 0 && row < len(m.container.Items)
}

func (m *ListModel) applyContainer(res containerResult) {
	m.mu.Lock()
	if res.generation != m.generation {
		// Result for a container that has since been discarded.
		m.mu.Unlock()
		return
	}
	if res.err != nil {
		m.busy = false
		m.mu.Unlock()
		m.emit(Event{Kind: EventFetchFailed, Err: res.err})
		return
	}

	var event Event
	if res.start == 0 || m.container == nil {
		container := res.container
		m.container = &container
		event = Event{Kind: EventContainerReplaced, First: 0, Last: len(container.Items) - 1}
	} else {
		first := len(m.container.Items)
		m.container.Items = append(m.container.Items, res.container.Items...)
		if res.container.TotalSize > 0 {
			m.container.TotalSize = res.container.TotalSize
		}
		event = Event{Kind: EventRowsAppended, First: first, Last: len(m.container.Items) - 1}
	}
	m.busy = false
	m.mu.Unlock()

	m.emit(event)
}

func (m *ListModel) applyThumb(res thumbResult) {
	m.mu.Lock()
	if res.generation != m.generation || !m.rowInBoundsLocked(res.row) {
		// Late arrival for a replaced container or evicted row.
		m.mu.Unlock()
		return
	}
	m.container.Items[res.row].Thumb = res.img
	m.mu.Unlock()

	m.emit(Event{Kind: EventRowChanged, Row: res.row})
}

func (m *ListModel) emit(event Event) {
	select {
	case m.events <- event:
	default:
		m.log.Warn("event dropped, consumer too slow", zap.Int("kind", int(event.Kind)))
	}
}
