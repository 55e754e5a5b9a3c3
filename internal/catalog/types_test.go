package catalog

import "testing"

func TestLocationEqual(t *testing.T) {
	base := Location{Key: "/library/sections/1/all", Sort: "titleSort:asc", Params: map[string]string{"unwatched": "1"}}

	cases := []struct {
		name  string
		other Location
		want  bool
	}{
		{"identical", Location{Key: "/library/sections/1/all", Sort: "titleSort:asc", Params: map[string]string{"unwatched": "1"}}, true},
		{"different key", Location{Key: "/library/sections/2/all", Sort: "titleSort:asc", Params: map[string]string{"unwatched": "1"}}, false},
		{"different sort", Location{Key: "/library/sections/1/all", Sort: "titleSort:desc", Params: map[string]string{"unwatched": "1"}}, false},
		{"different param value", Location{Key: "/library/sections/1/all", Sort: "titleSort:asc", Params: map[string]string{"unwatched": "0"}}, false},
		{"missing params", Location{Key: "/library/sections/1/all", Sort: "titleSort:asc"}, false},
	}
	for _, tc := range cases {
		if got := base.Equal(tc.other); got != tc.want {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}

	empty := Location{Key: "/"}
	if !empty.Equal(Location{Key: "/"}) {
		t.Errorf("expected nil and empty params equal")
	}
}

func TestItemKindPredicates(t *testing.T) {
	for _, kind := range []ItemKind{KindDirectory, KindSearchDirectory, KindPreferencesDirectory, KindShow, KindSeason, KindAlbum, KindArtist} {
		if !kind.IsDirectory() || kind.IsMedia() {
			t.Errorf("%v: expected directory, not media", kind)
		}
	}
	for _, kind := range []ItemKind{KindMovie, KindEpisode, KindTrack, KindPhoto, KindClip} {
		if kind.IsDirectory() || !kind.IsMedia() {
			t.Errorf("%v: expected media, not directory", kind)
		}
	}
	if KindUnknown.IsDirectory() || KindUnknown.IsMedia() {
		t.Errorf("unknown kind should be neither")
	}
}

func TestPlayableRequiresKey(t *testing.T) {
	if (Item{Kind: KindMovie}).Playable() {
		t.Errorf("expected keyless item unplayable")
	}
	if (Item{Kind: KindShow, Key: "/library/metadata/1"}).Playable() {
		t.Errorf("expected directory item unplayable")
	}
	if !(Item{Kind: KindMovie, Key: "/library/metadata/1"}).Playable() {
		t.Errorf("expected keyed movie playable")
	}
}

func TestPlayQueueSelected(t *testing.T) {
	queue := PlayQueue{
		ID:          "9",
		SelectedKey: "/library/metadata/2",
		Items: []Item{
			{Key: "/library/metadata/1"},
			{Key: "/library/metadata/2"},
		},
	}
	selected, ok := queue.Selected()
	if !ok || selected.Key != "/library/metadata/2" {
		t.Fatalf("expected selected item, got %+v ok=%v", selected, ok)
	}

	queue.SelectedKey = "/library/metadata/404"
	if _, ok := queue.Selected(); ok {
		t.Fatalf("expected no selection for unknown key")
	}
}
