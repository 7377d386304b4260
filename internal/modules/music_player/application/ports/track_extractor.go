package ports

import "context"

// TrackExtractor looks tracks up on the audio backend. The query may be a
// direct URL, a local file path, or a search expression understood by the
// backend (e.g. "ytsearch:...").
type TrackExtractor interface {
	LoadTracks(ctx context.Context, query string) (*LoadResult, error)
}
