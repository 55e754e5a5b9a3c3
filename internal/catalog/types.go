package catalog

import "image"

// ItemKind is the closed set of catalog item variants.
type ItemKind int

const (
	KindUnknown ItemKind = iota
	KindDirectory
	KindSearchDirectory
	KindPreferencesDirectory
	KindShow
	KindSeason
	KindAlbum
	KindArtist
	KindMovie
	KindEpisode
	KindTrack
	KindPhoto
	KindClip
)

// IsDirectory reports whether the kind is a navigable node.
func (k ItemKind) IsDirectory() bool {
	switch k {
	case KindDirectory, KindSearchDirectory, KindPreferencesDirectory,
		KindShow, KindSeason, KindAlbum, KindArtist:
		return true
	default:
		return false
	}
}

// IsMedia reports whether the kind is a playable leaf.
func (k ItemKind) IsMedia() bool {
	switch k {
	case KindMovie, KindEpisode, KindTrack, KindPhoto, KindClip:
		return true
	default:
		return false
	}
}

func (k ItemKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindSearchDirectory:
		return "search"
	case KindPreferencesDirectory:
		return "preferences"
	case KindShow:
		return "show"
	case KindSeason:
		return "season"
	case KindAlbum:
		return "album"
	case KindArtist:
		return "artist"
	case KindMovie:
		return "movie"
	case KindEpisode:
		return "episode"
	case KindTrack:
		return "track"
	case KindPhoto:
		return "photo"
	case KindClip:
		return "clip"
	default:
		return "unknown"
	}
}

// Item is one catalog entry. Items are owned by the Container that
// fetched them; the list model mediates access to the Thumb decoration.
type Item struct {
	Kind           ItemKind
	Key            string
	Title          string
	ParentKey      string
	GrandparentKey string
	ThumbURL       string
	MediaURL       string
	DurationMS     int64
	ViewOffsetMS   int64
	Watched        bool
	Markable       bool
	QueueItemID    int64

	// Thumb holds the decoded thumbnail once the worker pool delivers it.
	Thumb image.Image
}

// Playable reports whether the item can be handed to the play queue.
func (i Item) Playable() bool {
	return i.Kind.IsMedia() && i.Key != ""
}

// Container is one fetched (possibly partial) listing. Items are appended
// only, never reordered, as pages accumulate; TotalSize is the
// server-reported full count and may exceed len(Items).
type Container struct {
	Items     []Item
	TotalSize int
	Title1    string
	Title2    string
}

// Hub is a titled sub-listing, e.g. one search result category.
type Hub struct {
	Title string
	Items []Item
}

// Location is a normalized navigation target. Equality is structural.
type Location struct {
	Key    string
	Sort   string
	Params map[string]string
}

// Equal compares two locations structurally, params included.
func (l Location) Equal(other Location) bool {
	if l.Key != other.Key || l.Sort != other.Sort {
		return false
	}
	if len(l.Params) != len(other.Params) {
		return false
	}
	for k, v := range l.Params {
		if other.Params[k] != v {
			return false
		}
	}
	return true
}

// PlayQueue is a server-tracked ordered playback list.
type PlayQueue struct {
	ID          string
	Items       []Item
	SelectedKey string
}

// Selected returns the queue's selected item, if any.
func (q PlayQueue) Selected() (Item, bool) {
	for _, item := range q.Items {
		if item.Key == q.SelectedKey {
			return item, true
		}
	}
	return Item{}, false
}

// TimelineReport describes current playback position/state for the server.
type TimelineReport struct {
	ItemKey    string
	QueueID    string
	PositionMS int64
	DurationMS int64
	State      string
}

// Device is a server or player registered with the cloud session service.
type Device struct {
	Name             string
	ClientIdentifier string
	Provides         string
	AccessToken      string
	Connections      []string
}
