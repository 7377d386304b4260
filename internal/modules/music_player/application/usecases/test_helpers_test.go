package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/events"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunelink/internal/modules/music_player/domain"
)

// testContext returns a context that is canceled when the test ends.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func mockResolvedItem(title string) *domain.Item {
	return domain.NewResolved(title, "id-"+title, 3*time.Minute, false, "encoded-"+title, "", "")
}

func mockTrackInfo(title string) ports.TrackInfo {
	return ports.TrackInfo{
		Identifier: "id-" + title,
		Encoded:    "encoded-" + title,
		Title:      title,
		Artist:     "Artist",
		Duration:   3 * time.Minute,
	}
}

type mockAudioPlayer struct {
	mu        sync.Mutex
	played    []*domain.Item
	stops     int
	pauses    int
	resumes   int
	playErr   error
	stopErr   error
	pauseErr  error
	resumeErr error
}

func (m *mockAudioPlayer) Play(_ context.Context, _ snowflake.ID, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, item)
	return nil
}

func (m *mockAudioPlayer) Stop(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stops++
	return nil
}

func (m *mockAudioPlayer) Pause(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.pauses++
	return nil
}

func (m *mockAudioPlayer) Resume(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumes++
	return nil
}

func (m *mockAudioPlayer) playedTitles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	titles := make([]string, len(m.played))
	for i, item := range m.played {
		titles[i] = item.Title
	}
	return titles
}

func (m *mockAudioPlayer) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

type mockVoiceConnection struct {
	mu       sync.Mutex
	joined   []snowflake.ID
	left     []snowflake.ID
	joinErr  error
	leaveErr error
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return nil
}

func (m *mockVoiceConnection) LeaveChannel(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leaveErr != nil {
		return m.leaveErr
	}
	m.left = append(m.left, 0)
	return nil
}

func (m *mockVoiceConnection) leaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.left)
}

type mockTrackExtractor struct {
	mu      sync.Mutex
	queries []string
	loadErr error
	result  *ports.LoadResult
	// resultFor overrides result per query when set.
	resultFor map[string]*ports.LoadResult
}

func (m *mockTrackExtractor) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.resultFor != nil {
		if result, ok := m.resultFor[query]; ok {
			return result, nil
		}
	}
	if m.result != nil {
		return m.result, nil
	}
	return &ports.LoadResult{Type: ports.LoadTypeEmpty}, nil
}

func (m *mockTrackExtractor) lastQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queries) == 0 {
		return ""
	}
	return m.queries[len(m.queries)-1]
}

type mockCatalogClient struct {
	track        *ports.CatalogTrack
	trackErr     error
	playlistName string
	playlist     []ports.CatalogTrack
	playlistErr  error
	albumName    string
	album        []ports.CatalogTrack
	albumErr     error
}

func (m *mockCatalogClient) LookupTrack(_ context.Context, _ string) (*ports.CatalogTrack, error) {
	if m.trackErr != nil {
		return nil, m.trackErr
	}
	return m.track, nil
}

func (m *mockCatalogClient) LookupPlaylistTracks(
	_ context.Context,
	_ string,
) (string, []ports.CatalogTrack, error) {
	if m.playlistErr != nil {
		return "", nil, m.playlistErr
	}
	return m.playlistName, m.playlist, nil
}

func (m *mockCatalogClient) LookupAlbumTracks(
	_ context.Context,
	_ string,
) (string, []ports.CatalogTrack, error) {
	if m.albumErr != nil {
		return "", nil, m.albumErr
	}
	return m.albumName, m.album, nil
}

type mockVoiceStateProvider struct {
	mu sync.Mutex
	// channels maps userID to the channel the user occupies.
	channels map[snowflake.ID]snowflake.ID
	// members maps channelID to its occupants.
	members    map[snowflake.ID][]ports.VoiceMember
	canConnect bool
	err        error
}

func newMockVoiceStateProvider() *mockVoiceStateProvider {
	return &mockVoiceStateProvider{
		channels:   make(map[snowflake.ID]snowflake.ID),
		members:    make(map[snowflake.ID][]ports.VoiceMember),
		canConnect: true,
	}
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	_, userID snowflake.ID,
) (*snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	channelID, ok := m.channels[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

func (m *mockVoiceStateProvider) ChannelMembers(
	_, channelID snowflake.ID,
) ([]ports.VoiceMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.members[channelID], nil
}

func (m *mockVoiceStateProvider) HasConnectPermission(_ snowflake.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.canConnect, nil
}

func (m *mockVoiceStateProvider) setMembers(channelID snowflake.ID, members []ports.VoiceMember) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[channelID] = members
	for _, member := range members {
		m.channels[member.ID] = channelID
	}
}

type mockProxyTarget struct {
	mu      sync.Mutex
	proxies []string
	setErr  error
}

func (m *mockProxyTarget) SetProxy(proxyURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.proxies = append(m.proxies, proxyURL)
	return nil
}

// playerFixture bundles a player with its mocks for state machine tests.
type playerFixture struct {
	player     *Player
	audio      *mockAudioPlayer
	voice      *mockVoiceConnection
	voiceState *mockVoiceStateProvider
	extractor  *mockTrackExtractor
	bus        *events.Bus
	tornDown   chan snowflake.ID
}

const (
	testGuildID   = snowflake.ID(1)
	testBotID     = snowflake.ID(99)
	testChannelID = snowflake.ID(10)
	testUserID    = snowflake.ID(42)
)

func newPlayerFixture(cfg PlayerConfig) *playerFixture {
	audio := &mockAudioPlayer{}
	voice := &mockVoiceConnection{}
	voiceState := newMockVoiceStateProvider()
	extractor := &mockTrackExtractor{}
	bus := events.NewBus(10)
	tornDown := make(chan snowflake.ID, 1)

	resolver := NewResolver(extractor, nil, nil, "")
	player := NewPlayer(
		testGuildID,
		testBotID,
		cfg,
		audio,
		voice,
		voiceState,
		resolver,
		nil,
		bus,
		func(guildID snowflake.ID) { tornDown <- guildID },
	)
	bus.Subscribe(testGuildID, player)

	return &playerFixture{
		player:     player,
		audio:      audio,
		voice:      voice,
		voiceState: voiceState,
		extractor:  extractor,
		bus:        bus,
		tornDown:   tornDown,
	}
}

// connect joins the fixture player to the test channel with one human
// occupant, the test user.
func (f *playerFixture) connect(ctx context.Context) error {
	f.voiceState.setMembers(testChannelID, []ports.VoiceMember{
		{ID: testUserID},
		{ID: testBotID, IsBot: true},
	})
	return f.player.Connect(ctx, testChannelID, testUserID)
}

func snowflakePtr(id snowflake.ID) *snowflake.ID {
	return &id
}
