package presentation

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/events"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunelink/internal/modules/music_player/infrastructure"
)

// EventHandlers handles Discord gateway events for the music player.
type EventHandlers struct {
	adapter *infrastructure.LavalinkAdapter
	bus     ports.EventPublisher
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	adapter *infrastructure.LavalinkAdapter,
	bus ports.EventPublisher,
) *EventHandlers {
	return &EventHandlers{
		adapter: adapter,
		bus:     bus,
	}
}

// HandleVoiceStateUpdate forwards voice state updates to the audio backend
// and publishes the change for session occupancy tracking.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	h.adapter.OnVoiceStateUpdate(event)

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}
	userID, err := snowflake.Parse(event.UserID)
	if err != nil {
		slog.Error("failed to parse user ID in voice state update", "error", err)
		return
	}

	var before *snowflake.ID
	if event.BeforeUpdate != nil && event.BeforeUpdate.ChannelID != "" {
		if id, err := snowflake.Parse(event.BeforeUpdate.ChannelID); err == nil {
			before = &id
		}
	}

	var after *snowflake.ID
	if event.ChannelID != "" {
		if id, err := snowflake.Parse(event.ChannelID); err == nil {
			after = &id
		}
	}

	h.bus.PublishVoiceStateChanged(events.VoiceStateChangedEvent{
		GuildID:         guildID,
		UserID:          userID,
		BeforeChannelID: before,
		AfterChannelID:  after,
	})
}

// HandleVoiceServerUpdate forwards voice server updates to the audio backend.
func (h *EventHandlers) HandleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	h.adapter.OnVoiceServerUpdate(event)
}
