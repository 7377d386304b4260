package usecases

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunelink/internal/modules/music_player/domain"
)

var (
	youtubeTrackRegex    = regexp.MustCompile(`^((?:https?:)?//)?((?:www|m)\.)?(youtube\.com|youtu\.be)(/(?:[\w\-]+\?v=|embed/|v/)?)([\w\-]+)(\S+)?$`)
	youtubePlaylistRegex = regexp.MustCompile(`^https?://(www\.)?youtube\.com/playlist`)
	catalogRegex         = regexp.MustCompile(`^https?://open\.spotify\.com/(track|playlist|album)/([a-zA-Z0-9]+)`)
	genericURLRegex      = regexp.MustCompile(`^https?://`)
)

// localMediaExtensions lists the file extensions accepted for local playback.
var localMediaExtensions = map[string]struct{}{
	".webm": {}, ".mkv": {}, ".ogg": {}, ".avi": {}, ".mov": {},
	".mp4": {}, ".mpeg": {}, ".mpg": {}, ".m4v": {},
	".aac": {}, ".flac": {}, ".mp3": {}, ".wav": {},
}

// Resolution is the outcome of resolving a query: either a single item or a
// playlist, never both.
type Resolution struct {
	Item     *domain.Item
	Playlist *domain.Playlist
}

// Resolver turns free-text queries, URLs, and local paths into playable
// items. Catalog links are expanded through the catalog client; everything
// else goes to the track extractor. The catalog may be nil, in which case
// catalog links resolve to ErrNoTracksFound.
type Resolver struct {
	extractor ports.TrackExtractor
	catalog   ports.CatalogClient
	prober    ports.LocalFileProber
	localDir  string
}

// NewResolver creates a Resolver.
func NewResolver(
	extractor ports.TrackExtractor,
	catalog ports.CatalogClient,
	prober ports.LocalFileProber,
	localDir string,
) *Resolver {
	return &Resolver{
		extractor: extractor,
		catalog:   catalog,
		prober:    prober,
		localDir:  localDir,
	}
}

// Resolve classifies the query and returns a single item or a playlist.
// Catalog playlists and albums come back as partial items that are resolved
// lazily; every other route returns fully resolved items.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Resolution, error) {
	query = strings.TrimSpace(query)
	query = strings.TrimPrefix(query, "<")
	query = strings.TrimSuffix(query, ">")

	if matches := catalogRegex.FindStringSubmatch(query); matches != nil {
		return r.resolveCatalog(ctx, matches[1], matches[2])
	}

	if youtubePlaylistRegex.MatchString(query) {
		return r.resolveSourcePlaylist(ctx, query)
	}

	if youtubeTrackRegex.MatchString(query) {
		item, err := r.loadFirst(ctx, query)
		if err != nil {
			return nil, err
		}
		return &Resolution{Item: item}, nil
	}

	if genericURLRegex.MatchString(query) {
		return nil, ErrInvalidURL
	}

	item, err := r.loadFirst(ctx, "ytsearch:"+query)
	if err != nil {
		return nil, err
	}
	return &Resolution{Item: item}, nil
}

// ResolveItem resolves a partial item into a playable one. Items with a
// locator are looked up directly; the rest resolve by title search.
func (r *Resolver) ResolveItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item.Playable() {
		return item, nil
	}

	query := item.Locator
	if query == "" {
		query = "ytsearch:" + item.Title
	}
	return r.loadFirst(ctx, query)
}

// ResolveLocal resolves a file name under the local media directory. The
// name is cleaned to prevent escaping the directory, and only known media
// extensions are accepted.
func (r *Resolver) ResolveLocal(_ context.Context, name string) (*domain.Item, error) {
	if r.localDir == "" {
		return nil, ErrFileNotFound
	}

	cleaned := filepath.Base(filepath.Clean(name))
	ext := strings.ToLower(filepath.Ext(cleaned))
	if _, ok := localMediaExtensions[ext]; !ok {
		return nil, ErrFileNotFound
	}

	path := filepath.Join(r.localDir, cleaned)
	if _, err := os.Stat(path); err != nil {
		return nil, ErrFileNotFound
	}

	title := deriveLocalTitle(cleaned)

	var duration time.Duration
	if r.prober != nil {
		d, err := r.prober.Probe(path)
		if err != nil {
			slog.Warn("failed to probe local file", "path", path, "error", err)
		} else {
			duration = d
		}
	}

	return domain.NewLocal(title, duration, path), nil
}

func (r *Resolver) resolveCatalog(ctx context.Context, kind, id string) (*Resolution, error) {
	if r.catalog == nil {
		return nil, ErrNoTracksFound
	}

	switch kind {
	case "track":
		track, err := r.catalog.LookupTrack(ctx, id)
		if err != nil {
			slog.Warn("catalog track lookup failed", "id", id, "error", err)
			return nil, ErrNoTracksFound
		}
		item, err := r.loadFirst(ctx, "ytsearch:"+catalogSearchQuery(*track))
		if err != nil {
			return nil, err
		}
		return &Resolution{Item: item}, nil

	case "playlist":
		name, tracks, err := r.catalog.LookupPlaylistTracks(ctx, id)
		if err != nil {
			slog.Warn("catalog playlist lookup failed", "id", id, "error", err)
			return nil, ErrNoTracksFound
		}
		return catalogPlaylist(name, tracks)

	case "album":
		name, tracks, err := r.catalog.LookupAlbumTracks(ctx, id)
		if err != nil {
			slog.Warn("catalog album lookup failed", "id", id, "error", err)
			return nil, ErrNoTracksFound
		}
		return catalogPlaylist(name, tracks)

	default:
		return nil, ErrInvalidURL
	}
}

func (r *Resolver) resolveSourcePlaylist(ctx context.Context, url string) (*Resolution, error) {
	result, err := r.extractor.LoadTracks(ctx, url)
	if err != nil {
		slog.Warn("playlist load failed", "url", url, "error", err)
		return nil, ErrNoTracksFound
	}
	if result.Type != ports.LoadTypePlaylist || len(result.Tracks) == 0 {
		return nil, ErrNoTracksFound
	}

	items := make([]*domain.Item, 0, len(result.Tracks))
	for _, track := range result.Tracks {
		items = append(items, itemFromTrackInfo(track))
	}

	return &Resolution{
		Playlist: &domain.Playlist{
			Title: result.PlaylistName,
			Items: items,
		},
	}, nil
}

// loadFirst runs a backend lookup and returns the first track as a resolved
// item. All backend failures normalize to ErrNoTracksFound.
func (r *Resolver) loadFirst(ctx context.Context, query string) (*domain.Item, error) {
	result, err := r.extractor.LoadTracks(ctx, query)
	if err != nil {
		slog.Warn("track load failed", "query", query, "error", err)
		return nil, ErrNoTracksFound
	}
	if len(result.Tracks) == 0 || result.Type == ports.LoadTypeEmpty || result.Type == ports.LoadTypeError {
		return nil, ErrNoTracksFound
	}
	return itemFromTrackInfo(result.Tracks[0]), nil
}

func itemFromTrackInfo(track ports.TrackInfo) *domain.Item {
	return domain.NewResolved(
		track.Title,
		track.Identifier,
		track.Duration,
		track.IsStream,
		track.Encoded,
		track.URI,
		track.ArtworkURL,
	)
}

func catalogPlaylist(name string, tracks []ports.CatalogTrack) (*Resolution, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracksFound
	}

	items := make([]*domain.Item, 0, len(tracks))
	for _, track := range tracks {
		items = append(items, domain.NewPartial(catalogSearchQuery(track), track.Duration, ""))
	}

	return &Resolution{
		Playlist: &domain.Playlist{
			Title: name,
			Items: items,
		},
	}, nil
}

// catalogSearchQuery builds the search expression for a catalog track in
// "Artist A & Artist B - Title" form.
func catalogSearchQuery(track ports.CatalogTrack) string {
	if len(track.Artists) == 0 {
		return track.Title
	}
	return strings.Join(track.Artists, " & ") + " - " + track.Title
}

// deriveLocalTitle turns a file name into a display title: strip the
// extension, replace underscores with spaces, and drop a trailing
// " - suffix" segment such as an encoder tag.
func deriveLocalTitle(name string) string {
	title := strings.TrimSuffix(name, filepath.Ext(name))
	title = strings.ReplaceAll(title, "_", " ")
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		title = title[:idx]
	}
	return strings.TrimSpace(title)
}
