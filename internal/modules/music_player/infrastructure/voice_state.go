package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
)

// VoiceStateProvider reads Discord voice state from the gateway cache.
type VoiceStateProvider struct {
	session *discordgo.Session
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(session *discordgo.Session) *VoiceStateProvider {
	return &VoiceStateProvider{
		session: session,
	}
}

// GetUserVoiceChannel returns the voice channel the user is currently in, or
// nil if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (*snowflake.ID, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return nil, err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return nil, err
			}
			return &channelID, nil
		}
	}

	return nil, nil
}

// ChannelMembers lists the occupants of a voice channel. Members missing
// from the state cache are reported with IsBot unset.
func (v *VoiceStateProvider) ChannelMembers(
	guildID, channelID snowflake.ID,
) ([]ports.VoiceMember, error) {
	guild, err := v.session.State.Guild(guildID.String())
	if err != nil {
		return nil, err
	}

	var members []ports.VoiceMember
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID.String() {
			continue
		}

		userID, err := snowflake.Parse(vs.UserID)
		if err != nil {
			continue
		}

		isBot := false
		if member, err := v.session.State.Member(guildID.String(), vs.UserID); err == nil {
			isBot = member.User != nil && member.User.Bot
		}

		members = append(members, ports.VoiceMember{
			ID:    userID,
			IsBot: isBot,
		})
	}

	return members, nil
}

// HasConnectPermission reports whether the bot may join the channel.
func (v *VoiceStateProvider) HasConnectPermission(channelID snowflake.ID) (bool, error) {
	if v.session.State.User == nil {
		return false, fmt.Errorf("bot user not available in state")
	}

	permissions, err := v.session.State.UserChannelPermissions(
		v.session.State.User.ID,
		channelID.String(),
	)
	if err != nil {
		return false, err
	}

	return permissions&discordgo.PermissionVoiceConnect != 0, nil
}

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)
