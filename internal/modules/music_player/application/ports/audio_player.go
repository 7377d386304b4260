package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/modules/music_player/domain"
)

// AudioPlayer controls playback on the audio backend for a single guild.
type AudioPlayer interface {
	// Play starts playback of a playable item, replacing whatever is
	// currently playing. The item must satisfy item.Playable().
	Play(ctx context.Context, guildID snowflake.ID, item *domain.Item) error
	// Stop halts the current track. A no-op when nothing is playing.
	Stop(ctx context.Context, guildID snowflake.ID) error
	Pause(ctx context.Context, guildID snowflake.ID) error
	Resume(ctx context.Context, guildID snowflake.ID) error
}
