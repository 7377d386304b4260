package events

import (
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
)

// Re-export event types from ports for use by subscribers.
type (
	TrackEndedEvent        = ports.TrackEndedEvent
	VoiceStateChangedEvent = ports.VoiceStateChangedEvent
	TrackEndReason         = ports.TrackEndReason
)

// Re-export TrackEndReason constants.
const (
	TrackEndFinished   = ports.TrackEndFinished
	TrackEndLoadFailed = ports.TrackEndLoadFailed
	TrackEndStopped    = ports.TrackEndStopped
	TrackEndReplaced   = ports.TrackEndReplaced
	TrackEndCleanup    = ports.TrackEndCleanup
)
