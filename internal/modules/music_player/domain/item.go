package domain

import (
	"strconv"
	"time"
)

// ItemKind discriminates the playable item variants. The set is closed:
// every consumer switches exhaustively over these three values.
type ItemKind int

const (
	// ItemPartial is known only by title/duration and has not been resolved
	// to a playable stream yet. If Locator is set, resolution looks the URL
	// up directly; otherwise the title is used as a search query.
	ItemPartial ItemKind = iota
	// ItemResolved carries full metadata and an encoded stream reference.
	ItemResolved
	// ItemLocal is backed by a file on disk and needs no network resolution.
	ItemLocal
)

// String returns a human-readable representation of the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemResolved:
		return "resolved"
	case ItemLocal:
		return "local"
	default:
		return "partial"
	}
}

// Item is a playable queue entry. Every item exposes Title and Duration;
// only resolved and local items expose a playable endpoint.
type Item struct {
	Kind     ItemKind
	Title    string
	Duration time.Duration

	// Locator is the direct lookup URL for a partial item. Empty means
	// the item resolves by title search.
	Locator string

	// Resolved-only fields.
	Identifier string
	Encoded    string // opaque stream reference for the audio backend
	URI        string
	ArtworkURL string
	IsStream   bool

	// Local-only field.
	Path string
}

// NewPartial creates a partial item pending resolution.
func NewPartial(title string, duration time.Duration, locator string) *Item {
	return &Item{
		Kind:     ItemPartial,
		Title:    title,
		Duration: clampDuration(duration),
		Locator:  locator,
	}
}

// NewResolved creates a fully resolved, playable item.
func NewResolved(
	title string,
	identifier string,
	duration time.Duration,
	isStream bool,
	encoded string,
	uri string,
	artworkURL string,
) *Item {
	return &Item{
		Kind:       ItemResolved,
		Title:      title,
		Identifier: identifier,
		Duration:   clampDuration(duration),
		IsStream:   isStream,
		Encoded:    encoded,
		URI:        uri,
		ArtworkURL: artworkURL,
	}
}

// NewLocal creates an item backed by a local file.
func NewLocal(title string, duration time.Duration, path string) *Item {
	return &Item{
		Kind:     ItemLocal,
		Title:    title,
		Duration: clampDuration(duration),
		Path:     path,
	}
}

// Playable returns true if the item can be handed to the audio backend as-is.
func (i *Item) Playable() bool {
	return i.Kind == ItemResolved || i.Kind == ItemLocal
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (i *Item) FormattedDuration() string {
	if i.IsStream {
		return "LIVE"
	}

	totalSeconds := int(i.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// Playlist is an ordered collection of items. A playlist returned by the
// resolver is never empty; an empty result is treated as "not found".
type Playlist struct {
	Title string
	Items []*Item
}
