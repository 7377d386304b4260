package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time check that Bus implements ports.EventPublisher.
var _ ports.EventPublisher = (*Bus)(nil)

// Handler receives events for a single guild.
type Handler interface {
	HandleTrackEnded(ctx context.Context, event TrackEndedEvent)
	HandleVoiceStateChanged(ctx context.Context, event VoiceStateChangedEvent)
}

// Bus is a channel-based event bus that fans events out to per-guild
// subscribers. Events for guilds with no subscriber are dropped silently;
// that is the normal case for guilds without an active session.
type Bus struct {
	trackEnded        chan TrackEndedEvent
	voiceStateChanged chan VoiceStateChangedEvent

	handlers map[snowflake.ID]Handler
	closed   bool
	mu       sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewBus creates a new Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	return &Bus{
		trackEnded:        make(chan TrackEndedEvent, bufferSize),
		voiceStateChanged: make(chan VoiceStateChangedEvent, bufferSize),
		handlers:          make(map[snowflake.ID]Handler),
		done:              make(chan struct{}),
	}
}

// Subscribe registers the handler for a guild, replacing any previous one.
func (b *Bus) Subscribe(guildID snowflake.ID, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[guildID] = handler
}

// Unsubscribe removes the guild's handler. Events published afterwards are
// dropped, so a torn-down session never receives stale callbacks.
func (b *Bus) Unsubscribe(guildID snowflake.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, guildID)
}

func (b *Bus) handlerFor(guildID snowflake.ID) Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[guildID]
}

// PublishTrackEnded publishes a TrackEndedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishTrackEnded(event TrackEndedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnded")
		return
	}

	select {
	case b.trackEnded <- event:
		slog.Debug("published event", "type", "TrackEnded", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnded")
	}
}

// PublishVoiceStateChanged publishes a VoiceStateChangedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishVoiceStateChanged(event VoiceStateChangedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "VoiceStateChanged")
		return
	}

	select {
	case b.voiceStateChanged <- event:
		slog.Debug("published event", "type", "VoiceStateChanged", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "VoiceStateChanged")
	}
}

// Start begins dispatching events to subscribers in a background goroutine.
func (b *Bus) Start(ctx context.Context) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case event, ok := <-b.trackEnded:
				if !ok {
					return
				}
				if handler := b.handlerFor(event.GuildID); handler != nil {
					handler.HandleTrackEnded(ctx, event)
				}
			case event, ok := <-b.voiceStateChanged:
				if !ok {
					return
				}
				if handler := b.handlerFor(event.GuildID); handler != nil {
					handler.HandleVoiceStateChanged(ctx, event)
				}
			}
		}
	}()

	slog.Debug("event bus started")
}

// Close stops the dispatcher and closes all event channels.
// After calling Close, publishing will no longer send events.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	b.mu.Unlock()

	b.wg.Wait()

	close(b.trackEnded)
	close(b.voiceStateChanged)

	slog.Debug("event bus closed")
}
