package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientConfig configures the catalog HTTP client.
type ClientConfig struct {
	BaseURL  string
	Token    string
	ClientID string
	Timeout  time.Duration
}

// Client talks to a media server over HTTP.
type Client struct {
	log      *zap.Logger
	http     *http.Client
	baseURL  string
	token    string
	clientID string
}

// NewClient creates a catalog client for a server.
func NewClient(log *zap.Logger, cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base_url required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}
	return &Client{
		log:      log,
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		clientID: cfg.ClientID,
	}, nil
}

type mediaContainerResponse struct {
	MediaContainer mediaContainer `json:"MediaContainer"`
}

type mediaContainer struct {
	Size           int          `json:"size"`
	TotalSize      int          `json:"totalSize"`
	Title1         string       `json:"title1"`
	Title2         string       `json:"title2"`
	PlayQueueID    int64        `json:"playQueueID"`
	SelectedItemID int64        `json:"playQueueSelectedItemID"`
	Metadata       []metadata   `json:"Metadata"`
	Directory      []metadata   `json:"Directory"`
	Hub            []hubPayload `json:"Hub"`
}

type hubPayload struct {
	Title    string     `json:"title"`
	Metadata []metadata `json:"Metadata"`
}

type metadata struct {
	Key            string  `json:"key"`
	RatingKey      string  `json:"ratingKey"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	ParentKey      string  `json:"parentKey"`
	GrandparentKey string  `json:"grandparentKey"`
	Thumb          string  `json:"thumb"`
	Duration       int64   `json:"duration"`
	ViewOffset     int64   `json:"viewOffset"`
	ViewCount      int64   `json:"viewCount"`
	Search         bool    `json:"search"`
	Settings       bool    `json:"settings"`
	QueueItemID    int64   `json:"playQueueItemID"`
	Media          []media `json:"Media"`
}

type media struct {
	Part []part `json:"Part"`
}

type part struct {
	Key string `json:"key"`
}

// ListContainer fetches up to pageSize items of the container at path,
// beginning at offset start.
func (c *Client) ListContainer(ctx context.Context, containerPath string, start int, pageSize int, sort string, params map[string]string) (Container, error) {
	query := url.Values{}
	if sort != "" {
		query.Set("sort", sort)
	}
	for k, v := range params {
		query.Set(k, v)
	}

	headers := map[string]string{
		"X-Plex-Container-Start": strconv.Itoa(start),
		"X-Plex-Container-Size":  strconv.Itoa(pageSize),
	}

	var resp mediaContainerResponse
	if err := c.doJSON(ctx, "GET", containerPath, query, headers, &resp); err != nil {
		return Container{}, err
	}
	return toContainer(resp.MediaContainer), nil
}

// FetchImage retrieves image bytes, transcoded when width and height are set.
func (c *Client) FetchImage(ctx context.Context, imageURL string, width int, height int) ([]byte, error) {
	target := imageURL
	if width > 0 && height > 0 {
		query := url.Values{}
		query.Set("url", imageURL)
		query.Set("width", strconv.Itoa(width))
		query.Set("height", strconv.Itoa(height))
		target = "/photo/:/transcode?" + query.Encode()
	}
	return c.doRaw(ctx, target)
}

// Search runs a hub search across the server.
func (c *Client) Search(ctx context.Context, searchQuery string) ([]Hub, error) {
	query := url.Values{}
	query.Set("query", searchQuery)

	var resp mediaContainerResponse
	if err := c.doJSON(ctx, "GET", "/hubs/search", query, nil, &resp); err != nil {
		return nil, err
	}

	hubs := make([]Hub, 0, len(resp.MediaContainer.Hub))
	for _, hub := range resp.MediaContainer.Hub {
		if len(hub.Metadata) == 0 {
			continue
		}
		items := make([]Item, 0, len(hub.Metadata))
		for _, md := range hub.Metadata {
			items = append(items, toItem(md))
		}
		hubs = append(hubs, Hub{Title: hub.Title, Items: items})
	}
	return hubs, nil
}

// CreatePlayQueue materializes a server-side play queue from one item.
func (c *Client) CreatePlayQueue(ctx context.Context, seed Item) (PlayQueue, error) {
	query := url.Values{}
	query.Set("uri", c.itemURI(seed))
	query.Set("type", queueType(seed))

	var resp mediaContainerResponse
	if err := c.doJSON(ctx, "POST", "/playQueues", query, nil, &resp); err != nil {
		return PlayQueue{}, err
	}
	return toPlayQueue(resp.MediaContainer), nil
}

// AddToPlayQueue appends an item to an existing queue.
func (c *Client) AddToPlayQueue(ctx context.Context, queueID string, item Item) (PlayQueue, error) {
	query := url.Values{}
	query.Set("uri", c.itemURI(item))

	var resp mediaContainerResponse
	if err := c.doJSON(ctx, "PUT", "/playQueues/"+url.PathEscape(queueID), query, nil, &resp); err != nil {
		return PlayQueue{}, err
	}
	return toPlayQueue(resp.MediaContainer), nil
}

// RemoveFromPlayQueue removes an item from a queue.
func (c *Client) RemoveFromPlayQueue(ctx context.Context, queueID string, item Item) (PlayQueue, error) {
	endpoint := fmt.Sprintf("/playQueues/%s/items/%d", url.PathEscape(queueID), item.QueueItemID)

	var resp mediaContainerResponse
	if err := c.doJSON(ctx, "DELETE", endpoint, nil, nil, &resp); err != nil {
		return PlayQueue{}, err
	}
	return toPlayQueue(resp.MediaContainer), nil
}

// ReportTimeline pushes a playback status update.
func (c *Client) ReportTimeline(ctx context.Context, report TimelineReport) error {
	query := url.Values{}
	query.Set("ratingKey", path.Base(report.ItemKey))
	query.Set("key", report.ItemKey)
	query.Set("identifier", "com.plexapp.plugins.library")
	query.Set("state", report.State)
	query.Set("time", strconv.FormatInt(report.PositionMS, 10))
	query.Set("duration", strconv.FormatInt(report.DurationMS, 10))
	if report.QueueID != "" {
		query.Set("playQueueID", report.QueueID)
	}
	return c.doJSON(ctx, "GET", "/:/timeline", query, nil, nil)
}

// MarkWatched marks an item watched on the server.
func (c *Client) MarkWatched(ctx context.Context, key string) error {
	return c.scrobble(ctx, "/:/scrobble", key)
}

// MarkUnwatched clears an item's watched state.
func (c *Client) MarkUnwatched(ctx context.Context, key string) error {
	return c.scrobble(ctx, "/:/unscrobble", key)
}

func (c *Client) scrobble(ctx context.Context, endpoint string, key string) error {
	query := url.Values{}
	query.Set("key", path.Base(key))
	query.Set("identifier", "com.plexapp.plugins.library")
	return c.doJSON(ctx, "GET", endpoint, query, nil, nil)
}

// StreamURL resolves the direct playback URL for a media item.
func (c *Client) StreamURL(item Item) string {
	if item.MediaURL == "" {
		return ""
	}
	target := c.absoluteURL(item.MediaURL)
	if c.token == "" {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "X-Plex-Token=" + url.QueryEscape(c.token)
}

func (c *Client) itemURI(item Item) string {
	return fmt.Sprintf("library://%s/item/%s", c.clientID, url.QueryEscape(item.Key))
}

func (c *Client) doJSON(ctx context.Context, method string, endpoint string, query url.Values, headers map[string]string, out any) error {
	endpointURL := c.absoluteURL(endpoint)
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(endpointURL, "?") {
			sep = "&"
		}
		endpointURL += sep + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpointURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	req.Header.Set("Accept", "application/json")
	c.applyAuth(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.absoluteURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	c.applyAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) applyAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("X-Plex-Token", c.token)
	}
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
}

func (c *Client) absoluteURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + endpoint
}

func statusError(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrAuthentication
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 400:
		return fmt.Errorf("%w: server returned %d", ErrConnection, code)
	default:
		return nil
	}
}

func toContainer(mc mediaContainer) Container {
	children := make([]metadata, 0, len(mc.Metadata)+len(mc.Directory))
	children = append(children, mc.Directory...)
	children = append(children, mc.Metadata...)

	items := make([]Item, 0, len(children))
	for _, md := range children {
		items = append(items, toItem(md))
	}

	total := mc.TotalSize
	if total == 0 {
		total = len(items)
	}
	return Container{Items: items, TotalSize: total, Title1: mc.Title1, Title2: mc.Title2}
}

func toPlayQueue(mc mediaContainer) PlayQueue {
	queue := PlayQueue{ID: strconv.FormatInt(mc.PlayQueueID, 10)}
	for _, md := range mc.Metadata {
		item := toItem(md)
		if md.QueueItemID == mc.SelectedItemID && mc.SelectedItemID != 0 {
			queue.SelectedKey = item.Key
		}
		queue.Items = append(queue.Items, item)
	}
	return queue
}

func toItem(md metadata) Item {
	item := Item{
		Kind:           itemKind(md),
		Key:            md.Key,
		Title:          md.Title,
		ParentKey:      md.ParentKey,
		GrandparentKey: md.GrandparentKey,
		ThumbURL:       md.Thumb,
		DurationMS:     md.Duration,
		ViewOffsetMS:   md.ViewOffset,
		Watched:        md.ViewCount > 0,
		QueueItemID:    md.QueueItemID,
	}
	if item.Key == "" && md.RatingKey != "" {
		item.Key = "/library/metadata/" + md.RatingKey
	}
	if len(md.Media) > 0 && len(md.Media[0].Part) > 0 {
		item.MediaURL = md.Media[0].Part[0].Key
	}
	item.Markable = item.Kind.IsMedia() || item.Kind == KindShow || item.Kind == KindSeason
	return item
}

func itemKind(md metadata) ItemKind {
	switch strings.ToLower(strings.TrimSpace(md.Type)) {
	case "movie":
		return KindMovie
	case "episode":
		return KindEpisode
	case "track":
		return KindTrack
	case "photo":
		return KindPhoto
	case "clip":
		return KindClip
	case "show":
		return KindShow
	case "season":
		return KindSeason
	case "album":
		return KindAlbum
	case "artist":
		return KindArtist
	default:
		if md.Search {
			return KindSearchDirectory
		}
		if md.Settings {
			return KindPreferencesDirectory
		}
		return KindDirectory
	}
}

func queueType(item Item) string {
	switch item.Kind {
	case KindTrack, KindAlbum, KindArtist:
		return "audio"
	case KindPhoto:
		return "photo"
	default:
		return "video"
	}
}
