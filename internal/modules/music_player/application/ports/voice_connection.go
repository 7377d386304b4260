package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnection manages the bot's voice channel membership.
type VoiceConnection interface {
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error
}
