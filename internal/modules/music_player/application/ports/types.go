package ports

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// LoadType categorizes what a track lookup returned.
type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// TrackInfo is backend-agnostic track metadata.
type TrackInfo struct {
	Identifier string
	Encoded    string
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	ArtworkURL string
	SourceName string
	IsStream   bool
}

// LoadResult is the outcome of a track lookup.
type LoadResult struct {
	Type         LoadType
	Tracks       []TrackInfo
	PlaylistName string
}

// CatalogTrack is a track entry from a music catalog. Catalog entries carry
// metadata only; playback requires a separate lookup against the audio backend.
type CatalogTrack struct {
	Title    string
	Artists  []string
	Duration time.Duration
}

// VoiceMember is an occupant of a voice channel.
type VoiceMember struct {
	ID    snowflake.ID
	IsBot bool
}
