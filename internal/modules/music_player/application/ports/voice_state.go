package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateProvider reads voice state from the gateway cache.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the channel the user currently occupies,
	// or nil if the user is not in any voice channel of the guild.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (*snowflake.ID, error)
	// ChannelMembers lists the occupants of a voice channel.
	ChannelMembers(guildID, channelID snowflake.ID) ([]VoiceMember, error)
	// HasConnectPermission reports whether the bot may join the channel.
	HasConnectPermission(channelID snowflake.ID) (bool, error)
}
