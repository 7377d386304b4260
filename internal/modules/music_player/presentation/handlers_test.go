package presentation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/bot"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/events"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tunelink/internal/modules/music_player/domain"
)

// testContext returns a context that is canceled when the test ends.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

type stubAudioPlayer struct{}

func (stubAudioPlayer) Play(context.Context, snowflake.ID, *domain.Item) error { return nil }
func (stubAudioPlayer) Stop(context.Context, snowflake.ID) error               { return nil }
func (stubAudioPlayer) Pause(context.Context, snowflake.ID) error              { return nil }
func (stubAudioPlayer) Resume(context.Context, snowflake.ID) error             { return nil }

type stubVoiceConnection struct{}

func (stubVoiceConnection) JoinChannel(context.Context, snowflake.ID, snowflake.ID) error {
	return nil
}
func (stubVoiceConnection) LeaveChannel(context.Context, snowflake.ID) error { return nil }

type stubVoiceState struct {
	userChannel *snowflake.ID
	members     []ports.VoiceMember
}

func (s *stubVoiceState) GetUserVoiceChannel(_, _ snowflake.ID) (*snowflake.ID, error) {
	return s.userChannel, nil
}

func (s *stubVoiceState) ChannelMembers(_, _ snowflake.ID) ([]ports.VoiceMember, error) {
	return s.members, nil
}

func (s *stubVoiceState) HasConnectPermission(snowflake.ID) (bool, error) {
	return true, nil
}

type stubExtractor struct {
	result *ports.LoadResult
}

func (s *stubExtractor) LoadTracks(context.Context, string) (*ports.LoadResult, error) {
	if s.result != nil {
		return s.result, nil
	}
	return &ports.LoadResult{Type: ports.LoadTypeEmpty}, nil
}

type handlerFixture struct {
	handlers   *Handlers
	pool       *usecases.Pool
	voiceState *stubVoiceState
	bus        *events.Bus
}

func newHandlerFixture(extractor *stubExtractor) *handlerFixture {
	voiceState := &stubVoiceState{}
	bus := events.NewBus(10)
	resolver := usecases.NewResolver(extractor, nil, nil, "")

	var pool *usecases.Pool
	pool = usecases.NewPool(func(guildID snowflake.ID) *usecases.Player {
		player := usecases.NewPlayer(
			guildID,
			snowflake.ID(99),
			usecases.PlayerConfig{},
			stubAudioPlayer{},
			stubVoiceConnection{},
			voiceState,
			resolver,
			nil,
			bus,
			pool.Remove,
		)
		bus.Subscribe(guildID, player)
		return player
	})

	return &handlerFixture{
		handlers:   NewHandlers(pool, resolver, voiceState, 2.5, 3),
		pool:       pool,
		voiceState: voiceState,
		bus:        bus,
	}
}

func commandInteraction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: "1",
			Member: &discordgo.Member{
				User: &discordgo.User{ID: "42"},
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func embedDescription(t *testing.T, r *bot.MockResponder) string {
	t.Helper()
	if r.LastResponse == nil || len(r.LastResponse.Data.Embeds) == 0 {
		t.Fatal("expected an embed response")
	}
	return r.LastResponse.Data.Embeds[0].Description
}

func TestHandleSkip_WithoutSession(t *testing.T) {
	f := newHandlerFixture(&stubExtractor{})
	defer f.bus.Close()
	r := &bot.MockResponder{}

	if err := f.handlers.HandleSkip(nil, commandInteraction("skip"), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := embedDescription(t, r)
	if desc != usecases.ErrNotConnected.Error() {
		t.Errorf("expected not connected message, got %q", desc)
	}
}

func TestHandlePlay_UserNotInVoiceChannel(t *testing.T) {
	f := newHandlerFixture(&stubExtractor{})
	defer f.bus.Close()
	r := &bot.MockResponder{}

	interaction := commandInteraction("play", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "query",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: "some song",
	})

	if err := f.handlers.HandlePlay(nil, interaction, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := embedDescription(t, r)
	if desc != usecases.ErrUserNotConnected.Error() {
		t.Errorf("expected user-not-connected message, got %q", desc)
	}
}

func TestHandlePlay_AddsTrack(t *testing.T) {
	extractor := &stubExtractor{
		result: &ports.LoadResult{
			Type: ports.LoadTypeSearch,
			Tracks: []ports.TrackInfo{
				{
					Identifier: "id",
					Encoded:    "encoded",
					Title:      "Found Song",
					Duration:   3 * time.Minute,
				},
			},
		},
	}
	f := newHandlerFixture(extractor)
	defer f.bus.Close()

	channel := snowflake.ID(10)
	f.voiceState.userChannel = &channel
	f.voiceState.members = []ports.VoiceMember{{ID: snowflake.ID(42)}}

	r := &bot.MockResponder{}
	interaction := commandInteraction("play", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "query",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: "found song",
	})

	if err := f.handlers.HandlePlay(nil, interaction, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := embedDescription(t, r)
	if !strings.Contains(desc, "Found Song") {
		t.Errorf("expected confirmation naming the track, got %q", desc)
	}

	player := f.pool.Get(snowflake.ID(1))
	if player == nil || !player.Connected() {
		t.Fatal("expected a connected session after play")
	}
	if snap := player.Snapshot(); snap.Current == nil || snap.Current.Title != "Found Song" {
		t.Errorf("expected the track to be playing, got %+v", snap.Current)
	}
}

func TestHandleNowPlaying_WhileIdle(t *testing.T) {
	f := newHandlerFixture(&stubExtractor{})
	defer f.bus.Close()

	channel := snowflake.ID(10)
	f.voiceState.userChannel = &channel
	f.voiceState.members = []ports.VoiceMember{{ID: snowflake.ID(42)}}

	player := f.pool.GetOrCreate(snowflake.ID(1))
	if err := player.Connect(testContext(t), channel, snowflake.ID(42)); err != nil {
		t.Fatal(err)
	}

	r := &bot.MockResponder{}
	if err := f.handlers.HandleNowPlaying(nil, commandInteraction("nowplaying"), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := embedDescription(t, r)
	if desc != usecases.ErrNotPlaying.Error() {
		t.Errorf("expected not-playing message, got %q", desc)
	}
}

func TestHandleQueue_EmptySession(t *testing.T) {
	f := newHandlerFixture(&stubExtractor{})
	defer f.bus.Close()

	channel := snowflake.ID(10)
	f.voiceState.userChannel = &channel
	f.voiceState.members = []ports.VoiceMember{{ID: snowflake.ID(42)}}

	player := f.pool.GetOrCreate(snowflake.ID(1))
	if err := player.Connect(testContext(t), channel, snowflake.ID(42)); err != nil {
		t.Fatal(err)
	}

	r := &bot.MockResponder{}
	if err := f.handlers.HandleQueue(nil, commandInteraction("queue"), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := embedDescription(t, r)
	if desc != usecases.ErrNoTracksLeft.Error() {
		t.Errorf("expected empty-queue message, got %q", desc)
	}
}

func TestHandleVoteSkip_ReportsTally(t *testing.T) {
	extractor := &stubExtractor{
		result: &ports.LoadResult{
			Type: ports.LoadTypeSearch,
			Tracks: []ports.TrackInfo{
				{Identifier: "id", Encoded: "encoded", Title: "Song", Duration: time.Minute},
			},
		},
	}
	f := newHandlerFixture(extractor)
	defer f.bus.Close()

	channel := snowflake.ID(10)
	f.voiceState.userChannel = &channel
	// Five listeners puts the quorum at two votes.
	f.voiceState.members = []ports.VoiceMember{
		{ID: snowflake.ID(42)},
		{ID: snowflake.ID(43)},
		{ID: snowflake.ID(44)},
		{ID: snowflake.ID(45)},
		{ID: snowflake.ID(46)},
	}

	r := &bot.MockResponder{}
	interaction := commandInteraction("play", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "query",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: "song",
	})
	if err := f.handlers.HandlePlay(nil, interaction, r); err != nil {
		t.Fatal(err)
	}

	r = &bot.MockResponder{}
	if err := f.handlers.HandleVoteSkip(nil, commandInteraction("voteskip"), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := embedDescription(t, r)
	if !strings.Contains(desc, "1/2") {
		t.Errorf("expected tally 1/2, got %q", desc)
	}
}
