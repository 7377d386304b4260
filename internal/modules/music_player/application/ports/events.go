package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// TrackEndReason indicates why a track stopped playing.
type TrackEndReason string

const (
	// TrackEndFinished means the track played to completion.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndLoadFailed means the track failed to load.
	TrackEndLoadFailed TrackEndReason = "loadFailed"
	// TrackEndStopped means playback was stopped explicitly.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndReplaced means the track was replaced by another.
	TrackEndReplaced TrackEndReason = "replaced"
	// TrackEndCleanup means the player was cleaned up.
	TrackEndCleanup TrackEndReason = "cleanup"
)

// ShouldAdvance returns true if the session should move on to the next
// queued item after this end reason. Replaced tracks already have a
// successor playing; cleanup means the session is being torn down.
func (r TrackEndReason) ShouldAdvance() bool {
	switch r {
	case TrackEndFinished, TrackEndLoadFailed, TrackEndStopped:
		return true
	default:
		return false
	}
}

// TrackEndedEvent is published when a track stops playing.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Reason  TrackEndReason
}

// VoiceStateChangedEvent is published when any user's voice channel
// membership changes in a guild. A nil channel ID means "not in a voice
// channel".
type VoiceStateChangedEvent struct {
	GuildID         snowflake.ID
	UserID          snowflake.ID
	BeforeChannelID *snowflake.ID
	AfterChannelID  *snowflake.ID
}

// EventPublisher publishes playback and voice events.
type EventPublisher interface {
	PublishTrackEnded(event TrackEndedEvent)
	PublishVoiceStateChanged(event VoiceStateChangedEvent)
}
