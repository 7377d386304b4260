package music_player

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/bot"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/events"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/tunelink/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/tunelink/internal/modules/music_player/presentation"
)

// Compile-time interface checks.
var (
	_ bot.Module             = (*MusicPlayerModule)(nil)
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
)

// MusicPlayerModule provides per-guild music playback sessions.
type MusicPlayerModule struct {
	config *Config

	handlers        *presentation.Handlers
	eventHandlers   *presentation.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter

	bus  *events.Bus
	pool *usecases.Pool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the module.
func New() *MusicPlayerModule {
	return &MusicPlayerModule{}
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.handlers.HandleJoin,
		"leave":      m.handlers.HandleLeave,
		"play":       m.handlers.HandlePlay,
		"playfile":   m.handlers.HandlePlayFile,
		"skip":       m.handlers.HandleSkip,
		"voteskip":   m.handlers.HandleVoteSkip,
		"pause":      m.handlers.HandlePause,
		"resume":     m.handlers.HandleResume,
		"stop":       m.handlers.HandleStop,
		"shuffle":    m.handlers.HandleShuffle,
		"loop":       m.handlers.HandleLoop,
		"queue":      m.handlers.HandleQueue,
		"nowplaying": m.handlers.HandleNowPlaying,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.eventHandlers.HandleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.eventHandlers.HandleVoiceStateUpdate(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.bus = events.NewBus(events.DefaultEventBufferSize)

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
	})
	if err != nil {
		return err
	}
	lavalinkAdapter.SetEventBus(m.bus)
	m.lavalinkAdapter = lavalinkAdapter

	var catalog ports.CatalogClient
	var proxied ports.ProxyTarget
	if m.config.SpotifyClientID != "" && m.config.SpotifyClientSecret != "" {
		spotifyCatalog, err := infrastructure.NewSpotifyCatalog(m.ctx, infrastructure.SpotifyConfig{
			ClientID:     m.config.SpotifyClientID,
			ClientSecret: m.config.SpotifyClientSecret,
		})
		if err != nil {
			return err
		}
		catalog = spotifyCatalog
		proxied = spotifyCatalog
	} else {
		slog.Info("no Spotify credentials configured, catalog links disabled")
	}

	var prober ports.LocalFileProber
	if m.config.LocalMediaDir != "" {
		prober = infrastructure.NewFFmpegProber()
	}

	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	resolver := usecases.NewResolver(lavalinkAdapter, catalog, prober, m.config.LocalMediaDir)

	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return err
	}

	playerConfig := usecases.PlayerConfig{
		InactivityTimeout:     m.config.InactivityTimeout,
		EmptyChannelTimeout:   m.config.EmptyChannelTimeout,
		SweepInterval:         m.config.ResolveSweepInterval,
		Proxies:               m.config.Proxies,
		ProxyRotationInterval: m.config.ProxyRotationInterval,
	}

	var pool *usecases.Pool
	pool = usecases.NewPool(func(guildID snowflake.ID) *usecases.Player {
		player := usecases.NewPlayer(
			guildID,
			botID,
			playerConfig,
			lavalinkAdapter,
			lavalinkAdapter,
			voiceState,
			resolver,
			proxied,
			m.bus,
			pool.Remove,
		)
		m.bus.Subscribe(guildID, player)
		return player
	})
	m.pool = pool

	m.bus.Start(m.ctx)

	m.handlers = presentation.NewHandlers(
		pool,
		resolver,
		voiceState,
		m.config.VoteSkipRatio,
		m.config.PrivilegeThreshold,
	)
	m.eventHandlers = presentation.NewEventHandlers(lavalinkAdapter, m.bus)

	slog.Info("music_player module initialized",
		"catalog", catalog != nil,
		"local_media", m.config.LocalMediaDir != "",
	)

	return nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}

	if m.bus != nil {
		m.bus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Link().Close()
	}

	return nil
}
