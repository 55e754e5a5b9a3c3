package catalog

import "context"

// Service is the catalog capability the browsing and playback subsystems
// consume. The HTTP client implements it against a real server; tests use
// in-memory fakes.
type Service interface {
	// ListContainer fetches up to pageSize items of the container at
	// path, beginning at offset start.
	ListContainer(ctx context.Context, path string, start int, pageSize int, sort string, params map[string]string) (Container, error)

	// FetchImage retrieves image bytes, transcoded to width/height when
	// both are positive.
	FetchImage(ctx context.Context, url string, width int, height int) ([]byte, error)

	// Search runs a hub search across the server.
	Search(ctx context.Context, query string) ([]Hub, error)

	// CreatePlayQueue materializes a server-side play queue seeded from
	// one item.
	CreatePlayQueue(ctx context.Context, seed Item) (PlayQueue, error)

	// AddToPlayQueue appends an item to an existing queue and returns the
	// updated queue.
	AddToPlayQueue(ctx context.Context, queueID string, item Item) (PlayQueue, error)

	// RemoveFromPlayQueue removes an item and returns the updated queue.
	RemoveFromPlayQueue(ctx context.Context, queueID string, item Item) (PlayQueue, error)

	// ReportTimeline pushes a playback status update.
	ReportTimeline(ctx context.Context, report TimelineReport) error

	// MarkWatched and MarkUnwatched toggle server-side watched state.
	MarkWatched(ctx context.Context, key string) error
	MarkUnwatched(ctx context.Context, key string) error

	// StreamURL resolves the direct playback URL for a media item.
	StreamURL(item Item) string
}
