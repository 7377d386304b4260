package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
)

// catalogRequestsPerSecond bounds outbound catalog traffic so large playlist
// expansions do not trip the API's rate limiting.
const catalogRequestsPerSecond = 10

// SpotifyCatalog reads track metadata from the Spotify Web API using the
// client credentials flow.
type SpotifyCatalog struct {
	creds   clientcredentials.Config
	limiter *rate.Limiter

	mu     sync.Mutex
	client *spotify.Client
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// NewSpotifyCatalog creates a SpotifyCatalog and validates the credentials
// by fetching an initial token.
func NewSpotifyCatalog(ctx context.Context, config SpotifyConfig) (*SpotifyCatalog, error) {
	creds := clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	if _, err := creds.Token(ctx); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	catalog := &SpotifyCatalog{
		creds:   creds,
		limiter: rate.NewLimiter(rate.Limit(catalogRequestsPerSecond), catalogRequestsPerSecond),
	}
	catalog.client = spotify.New(creds.Client(ctx))

	slog.Info("authenticated with Spotify")
	return catalog, nil
}

func (s *SpotifyCatalog) currentClient() *spotify.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// SetProxy rebuilds the API client to route traffic through the proxy.
// An empty URL restores direct access.
func (s *SpotifyCatalog) SetProxy(proxyURL string) error {
	httpClient := http.DefaultClient
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
		httpClient = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
			Timeout:   30 * time.Second,
		}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = spotify.New(s.creds.Client(ctx))

	slog.Info("catalog proxy updated", "proxy", proxyURL != "")
	return nil
}

// LookupTrack fetches a single track's metadata.
func (s *SpotifyCatalog) LookupTrack(ctx context.Context, id string) (*ports.CatalogTrack, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	track, err := s.currentClient().GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch track: %w", err)
	}

	converted := convertCatalogTrack(track.SimpleTrack)
	return &converted, nil
}

// LookupPlaylistTracks fetches a playlist's name and all of its tracks,
// following pagination.
func (s *SpotifyCatalog) LookupPlaylistTracks(
	ctx context.Context,
	id string,
) (string, []ports.CatalogTrack, error) {
	client := s.currentClient()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}
	playlist, err := client.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}
	page, err := client.GetPlaylistItems(ctx, spotify.ID(id))
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch playlist items: %w", err)
	}

	var tracks []ports.CatalogTrack
	for {
		for _, item := range page.Items {
			// Episodes and removed tracks come back with a nil track.
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, convertCatalogTrack(item.Track.Track.SimpleTrack))
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return "", nil, err
		}
		err = client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to fetch playlist page: %w", err)
		}
	}

	return playlist.Name, tracks, nil
}

// LookupAlbumTracks fetches an album's name and all of its tracks, following
// pagination.
func (s *SpotifyCatalog) LookupAlbumTracks(
	ctx context.Context,
	id string,
) (string, []ports.CatalogTrack, error) {
	client := s.currentClient()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}
	album, err := client.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch album: %w", err)
	}

	page := &album.Tracks
	var tracks []ports.CatalogTrack
	for {
		for _, track := range page.Tracks {
			tracks = append(tracks, convertCatalogTrack(track))
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return "", nil, err
		}
		err = client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to fetch album page: %w", err)
		}
	}

	return album.Name, tracks, nil
}

func convertCatalogTrack(track spotify.SimpleTrack) ports.CatalogTrack {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	return ports.CatalogTrack{
		Title:    track.Name,
		Artists:  artists,
		Duration: time.Duration(track.Duration) * time.Millisecond,
	}
}

// Ensure SpotifyCatalog implements the catalog and proxy ports.
var (
	_ ports.CatalogClient = (*SpotifyCatalog)(nil)
	_ ports.ProxyTarget   = (*SpotifyCatalog)(nil)
)
