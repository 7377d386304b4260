package ports

import "context"

// CatalogClient reads track metadata from an external music catalog.
type CatalogClient interface {
	LookupTrack(ctx context.Context, id string) (*CatalogTrack, error)
	// LookupPlaylistTracks returns the playlist's display name and its
	// tracks in playlist order.
	LookupPlaylistTracks(ctx context.Context, id string) (string, []CatalogTrack, error)
	// LookupAlbumTracks returns the album's display name and its tracks in
	// album order.
	LookupAlbumTracks(ctx context.Context, id string) (string, []CatalogTrack, error)
}
