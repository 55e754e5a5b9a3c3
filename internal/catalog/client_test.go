package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(zap.NewNop(), ClientConfig{
		BaseURL:  server.URL,
		Token:    "token-1",
		ClientID: "client-1",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

const sectionBody = `{
	"MediaContainer": {
		"size": 2,
		"totalSize": 120,
		"title1": "Movies",
		"Metadata": [
			{
				"key": "/library/metadata/10",
				"type": "movie",
				"title": "First",
				"thumb": "/library/metadata/10/thumb",
				"duration": 5400000,
				"viewOffset": 60000,
				"viewCount": 1,
				"Media": [{"Part": [{"key": "/library/parts/10/file.mkv"}]}]
			},
			{
				"key": "/library/metadata/11",
				"type": "movie",
				"title": "Second"
			}
		]
	}
}`

func TestListContainerSendsPagingHeaders(t *testing.T) {
	var gotStart, gotSize, gotToken, gotSort string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.Header.Get("X-Plex-Container-Start")
		gotSize = r.Header.Get("X-Plex-Container-Size")
		gotToken = r.Header.Get("X-Plex-Token")
		gotSort = r.URL.Query().Get("sort")
		w.Write([]byte(sectionBody))
	}))

	container, err := client.ListContainer(context.Background(), "/library/sections/1/all", 100, 50, "titleSort:asc", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if gotStart != "100" || gotSize != "50" {
		t.Fatalf("unexpected paging headers start=%q size=%q", gotStart, gotSize)
	}
	if gotToken != "token-1" {
		t.Fatalf("expected token header, got %q", gotToken)
	}
	if gotSort != "titleSort:asc" {
		t.Fatalf("expected sort forwarded, got %q", gotSort)
	}
	if container.TotalSize != 120 || len(container.Items) != 2 {
		t.Fatalf("unexpected container total=%d len=%d", container.TotalSize, len(container.Items))
	}
	if container.Title1 != "Movies" {
		t.Fatalf("unexpected title %q", container.Title1)
	}
}

func TestListContainerMapsMetadata(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sectionBody))
	}))

	container, err := client.ListContainer(context.Background(), "/library/sections/1/all", 0, 50, "", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	first := container.Items[0]
	if first.Kind != KindMovie || first.Title != "First" {
		t.Fatalf("unexpected item %+v", first)
	}
	if first.MediaURL != "/library/parts/10/file.mkv" {
		t.Fatalf("expected media part URL, got %q", first.MediaURL)
	}
	if first.ViewOffsetMS != 60000 || !first.Watched {
		t.Fatalf("expected resume offset and watched flag, got %+v", first)
	}
	if !first.Playable() {
		t.Fatalf("expected movie playable")
	}

	second := container.Items[1]
	if second.MediaURL != "" || second.Watched {
		t.Fatalf("expected bare second item, got %+v", second)
	}
}

func TestListContainerDirectoryKinds(t *testing.T) {
	body := `{
		"MediaContainer": {
			"Directory": [
				{"key": "all", "title": "All Shows", "type": "show"},
				{"key": "search?type=2", "title": "Search...", "search": true},
				{"key": "prefs", "title": "Preferences", "settings": true},
				{"key": "folder", "title": "By Folder"}
			]
		}
	}`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))

	container, err := client.ListContainer(context.Background(), "/library/sections/2", 0, 50, "", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	kinds := []ItemKind{KindShow, KindSearchDirectory, KindPreferencesDirectory, KindDirectory}
	for i, want := range kinds {
		if container.Items[i].Kind != want {
			t.Fatalf("item %d: want kind %v, got %v", i, want, container.Items[i].Kind)
		}
		if !container.Items[i].Kind.IsDirectory() {
			t.Fatalf("item %d: expected directory kind", i)
		}
	}
	if container.TotalSize != 4 {
		t.Fatalf("expected total defaulted to size, got %d", container.TotalSize)
	}
}

func TestStatusMapping(t *testing.T) {
	status := http.StatusOK
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	status = http.StatusUnauthorized
	_, err := client.ListContainer(context.Background(), "/library/sections", 0, 50, "", nil)
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("want ErrAuthentication, got %v", err)
	}

	status = http.StatusNotFound
	_, err = client.ListContainer(context.Background(), "/library/sections", 0, 50, "", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	status = http.StatusInternalServerError
	_, err = client.ListContainer(context.Background(), "/library/sections", 0, 50, "", nil)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("want ErrConnection, got %v", err)
	}
}

func TestNetworkFailureWrapsConnectionError(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.ListContainer(context.Background(), "/library/sections", 0, 50, "", nil)
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("want ErrConnection, got %v", err)
	}
}

func TestFetchImageTranscodes(t *testing.T) {
	var gotPath, gotURL, gotWidth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotURL = r.URL.Query().Get("url")
		gotWidth = r.URL.Query().Get("width")
		w.Write([]byte("imagebytes"))
	}))

	data, err := client.FetchImage(context.Background(), "/library/metadata/10/thumb", 240, 240)
	if err != nil {
		t.Fatalf("fetch image: %v", err)
	}
	if gotPath != "/photo/:/transcode" {
		t.Fatalf("expected transcode endpoint, got %q", gotPath)
	}
	if gotURL != "/library/metadata/10/thumb" || gotWidth != "240" {
		t.Fatalf("unexpected transcode params url=%q width=%q", gotURL, gotWidth)
	}
	if string(data) != "imagebytes" {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestFetchImageFullSizeSkipsTranscode(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("raw"))
	}))

	if _, err := client.FetchImage(context.Background(), "/library/metadata/10/art", 0, 0); err != nil {
		t.Fatalf("fetch image: %v", err)
	}
	if gotPath != "/library/metadata/10/art" {
		t.Fatalf("expected direct path, got %q", gotPath)
	}
}

const playQueueBody = `{
	"MediaContainer": {
		"playQueueID": 77,
		"playQueueSelectedItemID": 502,
		"Metadata": [
			{"key": "/library/metadata/20", "type": "track", "title": "One", "playQueueItemID": 501},
			{"key": "/library/metadata/21", "type": "track", "title": "Two", "playQueueItemID": 502}
		]
	}
}`

func TestCreatePlayQueue(t *testing.T) {
	var gotMethod, gotURI, gotType string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotURI = r.URL.Query().Get("uri")
		gotType = r.URL.Query().Get("type")
		w.Write([]byte(playQueueBody))
	}))

	queue, err := client.CreatePlayQueue(context.Background(), Item{Kind: KindTrack, Key: "/library/metadata/20"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if gotMethod != "POST" || gotType != "audio" {
		t.Fatalf("unexpected request method=%q type=%q", gotMethod, gotType)
	}
	if gotURI == "" {
		t.Fatalf("expected item uri in query")
	}
	if queue.ID != "77" || len(queue.Items) != 2 {
		t.Fatalf("unexpected queue %+v", queue)
	}
	selected, ok := queue.Selected()
	if !ok || selected.Key != "/library/metadata/21" {
		t.Fatalf("expected selected item resolved via queue item id, got %+v ok=%v", selected, ok)
	}
}

func TestRemoveFromPlayQueueUsesQueueItemID(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(playQueueBody))
	}))

	_, err := client.RemoveFromPlayQueue(context.Background(), "77", Item{Key: "/library/metadata/20", QueueItemID: 501})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if gotMethod != "DELETE" || gotPath != "/playQueues/77/items/501" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestReportTimelineQuery(t *testing.T) {
	var got map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"path":      r.URL.Path,
			"ratingKey": r.URL.Query().Get("ratingKey"),
			"state":     r.URL.Query().Get("state"),
			"time":      r.URL.Query().Get("time"),
			"duration":  r.URL.Query().Get("duration"),
			"queue":     r.URL.Query().Get("playQueueID"),
		}
	}))

	err := client.ReportTimeline(context.Background(), TimelineReport{
		ItemKey:    "/library/metadata/42",
		QueueID:    "77",
		PositionMS: 61000,
		DurationMS: 5400000,
		State:      "playing",
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if got["path"] != "/:/timeline" {
		t.Fatalf("expected timeline endpoint, got %q", got["path"])
	}
	if got["ratingKey"] != "42" || got["state"] != "playing" {
		t.Fatalf("unexpected identity params %+v", got)
	}
	if got["time"] != "61000" || got["duration"] != "5400000" {
		t.Fatalf("unexpected progress params %+v", got)
	}
	if got["queue"] != "77" {
		t.Fatalf("expected play queue id forwarded, got %q", got["queue"])
	}
}

func TestScrobbleEndpoints(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if got := r.URL.Query().Get("key"); got != "42" {
			t.Errorf("expected rating key in query, got %q", got)
		}
	}))

	if err := client.MarkWatched(context.Background(), "/library/metadata/42"); err != nil {
		t.Fatalf("mark watched: %v", err)
	}
	if err := client.MarkUnwatched(context.Background(), "/library/metadata/42"); err != nil {
		t.Fatalf("mark unwatched: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/:/scrobble" || paths[1] != "/:/unscrobble" {
		t.Fatalf("unexpected endpoints %v", paths)
	}
}

func TestSearchGroupsHubs(t *testing.T) {
	body := `{
		"MediaContainer": {
			"Hub": [
				{"title": "Movies", "Metadata": [{"key": "/library/metadata/1", "type": "movie", "title": "Hit"}]},
				{"title": "Shows", "Metadata": []}
			]
		}
	}`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "hit" {
			t.Errorf("expected query forwarded, got %q", got)
		}
		w.Write([]byte(body))
	}))

	hubs, err := client.Search(context.Background(), "hit")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hubs) != 1 {
		t.Fatalf("expected empty hubs dropped, got %d", len(hubs))
	}
	if hubs[0].Title != "Movies" || hubs[0].Items[0].Title != "Hit" {
		t.Fatalf("unexpected hub %+v", hubs[0])
	}
}

func TestStreamURLAppendsToken(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	got := client.StreamURL(Item{Kind: KindMovie, Key: "/library/metadata/1", MediaURL: "/library/parts/1/file.mkv"})
	want := server.URL + "/library/parts/1/file.mkv?X-Plex-Token=token-1"
	if got != want {
		t.Fatalf("stream url: want %q, got %q", want, got)
	}

	if got := client.StreamURL(Item{}); got != "" {
		t.Fatalf("expected empty url for item without media, got %q", got)
	}
}
