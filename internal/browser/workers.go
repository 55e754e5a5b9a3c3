package browser

import (
	"bytes"
	"context"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/coryo/plexdesk/internal/cache"
	"github.com/coryo/plexdesk/internal/catalog"
)

// BlobCache is the slice of the content cache the thumbnail pool needs.
type BlobCache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte) error
}

type containerRequest struct {
	generation int
	start      int
	path       string
	sort       string
	params     map[string]string
	pageSize   int
}

type containerResult struct {
	generation int
	start      int
	container  catalog.Container
	err        error
}

// containerWorker performs one blocking list request at a time. The list
// model's busy guard ensures at most one request is ever outstanding.
type containerWorker struct {
	log      *zap.Logger
	svc      catalog.Service
	requests chan containerRequest
	results  chan containerResult
}

func newContainerWorker(log *zap.Logger, svc catalog.Service) *containerWorker {
	return &containerWorker{
		log:      log,
		svc:      svc,
		requests: make(chan containerRequest, 1),
		results:  make(chan containerResult, 1),
	}
}

func (w *containerWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			container, err := w.svc.ListContainer(ctx, req.path, req.start, req.pageSize, req.sort, req.params)
			result := containerResult{generation: req.generation, start: req.start, container: container, err: err}
			select {
			case w.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

type thumbKey struct {
	generation int
	row        int
}

type thumbRequest struct {
	generation int
	row        int
	url        string
}

type thumbResult struct {
	generation int
	row        int
	img        image.Image
}

// thumbPool resolves thumbnail requests from cache or the catalog service,
// decodes them, and hands decoded bitmaps back keyed to the origin request.
// Requests are processed FIFO on a single goroutine.
type thumbPool struct {
	log    *zap.Logger
	svc    catalog.Service
	cache  BlobCache
	width  int
	height int

	mu      sync.Mutex
	pending map[thumbKey]bool

	requests chan thumbRequest
	results  chan thumbResult
}

func newThumbPool(log *zap.Logger, svc catalog.Service, blobs BlobCache, width int, height int, depth int) *thumbPool {
	return &thumbPool{
		log:      log,
		svc:      svc,
		cache:    blobs,
		width:    width,
		height:   height,
		pending:  make(map[thumbKey]bool),
		requests: make(chan thumbRequest, depth),
		results:  make(chan thumbResult, depth),
	}
}

// enqueue queues one thumbnail request. Duplicate requests for a row whose
// fetch is still pending are dropped.
func (p *thumbPool) enqueue(req thumbRequest) bool {
	key := thumbKey{generation: req.generation, row: req.row}

	p.mu.Lock()
	if p.pending[key] {
		p.mu.Unlock()
		return false
	}
	p.pending[key] = true
	p.mu.Unlock()

	select {
	case p.requests <- req:
		return true
	default:
		// Queue full; drop so the row can be re-requested on the next
		// visibility pass.
		p.clearPending(key)
		return false
	}
}

func (p *thumbPool) clearPending(key thumbKey) {
	p.mu.Lock()
	delete(p.pending, key)
	p.mu.Unlock()
}

func (p *thumbPool) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.requests:
			p.process(ctx, req)
		}
	}
}

func (p *thumbPool) process(ctx context.Context, req thumbRequest) {
	defer p.clearPending(thumbKey{generation: req.generation, row: req.row})

	data, err := p.resolve(ctx, req.url)
	if err != nil {
		p.log.Debug("thumbnail fetch failed", zap.String("url", req.url), zap.Error(err))
		return
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		p.log.Debug("thumbnail decode failed", zap.String("url", req.url), zap.Error(err))
		return
	}

	select {
	case p.results <- thumbResult{generation: req.generation, row: req.row, img: img}:
	case <-ctx.Done():
	}
}

func (p *thumbPool) resolve(ctx context.Context, url string) ([]byte, error) {
	key := cache.Key(url)
	if data, ok, err := p.cache.Get(key); err == nil && ok {
		return data, nil
	} else if err != nil {
		p.log.Warn("cache read failed", zap.Error(err))
	}

	data, err := p.svc.FetchImage(ctx, url, p.width, p.height)
	if err != nil {
		return nil, err
	}
	// The put commits before the result is published, so a dependent
	// reader never observes a half-written entry.
	if err := p.cache.Put(key, data); err != nil {
		p.log.Warn("cache write failed", zap.Error(err))
	}
	return data, nil
}
