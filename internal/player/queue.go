package player

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/coryo/plexdesk/internal/catalog"
)

// EnginePlaylist is the slice of the engine the queue controller mirrors.
type EnginePlaylist interface {
	PlaylistAppend(url string) error
	PlaylistRemove(index int) error
	PlaylistCount() (int, error)
}

// QueueController manages the server-side play queue and keeps the
// engine's internal playlist the same length. Timeline reports run on
// their own goroutine so network latency never blocks playback control.
type QueueController struct {
	log    *zap.Logger
	svc    catalog.Service
	engine EnginePlaylist

	mu      sync.Mutex
	queue   catalog.PlayQueue
	current int

	reports chan catalog.TimelineReport
}

// NewQueueController creates a queue controller.
func NewQueueController(log *zap.Logger, svc catalog.Service, engine EnginePlaylist) *QueueController {
	return &QueueController{
		log:     log,
		svc:     svc,
		engine:  engine,
		current: -1,
		reports: make(chan catalog.TimelineReport, 16),
	}
}

// Create materializes a server-side play queue from one seed item. The
// queue's selected item, or the seed when none is marked, becomes current.
func (c *QueueController) Create(ctx context.Context, seed catalog.Item) (catalog.Item, error) {
	queue, err := c.svc.CreatePlayQueue(ctx, seed)
	if err != nil {
		return catalog.Item{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = queue
	c.current = 0
	if _, ok := queue.Selected(); ok {
		c.current = c.indexOfLocked(queue.SelectedKey)
	} else if idx := c.indexOfLocked(seed.Key); idx >= 0 {
		c.current = idx
	}

	for i, item := range queue.Items {
		if err := c.engine.PlaylistAppend(c.svc.StreamURL(item)); err != nil {
			// Roll back what was appended so the engine playlist and
			// the local queue stay the same length.
			for j := i - 1; j >= 0; j-- {
				if remErr := c.engine.PlaylistRemove(j); remErr != nil {
					c.log.Warn("engine playlist rollback failed", zap.Int("index", j), zap.Error(remErr))
				}
			}
			c.queue = catalog.PlayQueue{}
			c.current = -1
			return catalog.Item{}, err
		}
	}

	if c.current < 0 || c.current >= len(c.queue.Items) {
		return seed, nil
	}
	return c.queue.Items[c.current], nil
}

// Queue appends an item to the server queue and, only when the local queue
// actually grew, to the engine playlist. Engine playlist length equals
// local queue length after every successful call.
func (c *QueueController) Queue(ctx context.Context, item catalog.Item) error {
	c.mu.Lock()
	queueID := c.queue.ID
	before := len(c.queue.Items)
	c.mu.Unlock()

	updated, err := c.svc.AddToPlayQueue(ctx, queueID, item)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.replaceQueueLocked(updated)
	if len(c.queue.Items) > before {
		return c.engine.PlaylistAppend(c.svc.StreamURL(item))
	}
	return nil
}

// Remove removes an item symmetrically from the server queue and the
// engine playlist.
func (c *QueueController) Remove(ctx context.Context, item catalog.Item) error {
	c.mu.Lock()
	queueID := c.queue.ID
	before := len(c.queue.Items)
	index := c.indexOfLocked(item.Key)
	c.mu.Unlock()

	updated, err := c.svc.RemoveFromPlayQueue(ctx, queueID, item)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.replaceQueueLocked(updated)
	if len(c.queue.Items) < before && index >= 0 {
		return c.engine.PlaylistRemove(index)
	}
	return nil
}

// Current returns the current item.
func (c *QueueController) Current() (catalog.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < 0 || c.current >= len(c.queue.Items) {
		return catalog.Item{}, false
	}
	return c.queue.Items[c.current], true
}

// NextItem advances the selection and returns the new current item.
func (c *QueueController) NextItem() (catalog.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current+1 >= len(c.queue.Items) {
		return catalog.Item{}, false
	}
	c.current++
	return c.queue.Items[c.current], true
}

// PrevItem moves the selection back and returns the new current item.
func (c *QueueController) PrevItem() (catalog.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current <= 0 || len(c.queue.Items) == 0 {
		return catalog.Item{}, false
	}
	c.current--
	return c.queue.Items[c.current], true
}

// SelectItem sets the selection to an item already in the queue.
func (c *QueueController) SelectItem(item catalog.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOfLocked(item.Key); idx >= 0 {
		c.current = idx
	}
}

// Len returns the local queue length.
func (c *QueueController) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue.Items)
}

// StreamURL resolves the playback URL for an item.
func (c *QueueController) StreamURL(item catalog.Item) string {
	return c.svc.StreamURL(item)
}

// Report enqueues a timeline report; it never blocks the caller.
func (c *QueueController) Report(state string, positionMS int64) {
	c.mu.Lock()
	if c.current < 0 || c.current >= len(c.queue.Items) {
		c.mu.Unlock()
		return
	}
	item := c.queue.Items[c.current]
	queueID := c.queue.ID
	c.mu.Unlock()

	position := positionMS
	if position < 0 {
		position = 0
	}
	if item.DurationMS > 0 && position > item.DurationMS {
		position = item.DurationMS
	}

	report := catalog.TimelineReport{
		ItemKey:    item.Key,
		QueueID:    queueID,
		PositionMS: position,
		DurationMS: item.DurationMS,
		State:      state,
	}
	select {
	case c.reports <- report:
	default:
		c.log.Debug("timeline report dropped, reporter backlogged")
	}
}

// RunReporter drains timeline reports until ctx ends. Failures are logged
// and never stop subsequent reporting.
func (c *QueueController) RunReporter(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case report := <-c.reports:
			if err := c.svc.ReportTimeline(ctx, report); err != nil {
				c.log.Warn("timeline report failed",
					zap.String("key", report.ItemKey),
					zap.Error(err),
				)
			}
		}
	}
}

func (c *QueueController) replaceQueueLocked(updated catalog.PlayQueue) {
	currentKey := ""
	if c.current >= 0 && c.current < len(c.queue.Items) {
		currentKey = c.queue.Items[c.current].Key
	}
	c.queue = updated
	if currentKey != "" {
		if idx := c.indexOfLocked(currentKey); idx >= 0 {
			c.current = idx
		}
	}
	if c.current >= len(c.queue.Items) {
		c.current = len(c.queue.Items) - 1
	}
}

func (c *QueueController) indexOfLocked(key string) int {
	for i, item := range c.queue.Items {
		if item.Key == key {
			return i
		}
	}
	return -1
}
