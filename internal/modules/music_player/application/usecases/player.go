package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/events"
	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
	"github.com/sglre6355/tunelink/internal/modules/music_player/domain"
)

// PlaybackState is the coarse state of a guild session.
type PlaybackState int

const (
	StateIdle PlaybackState = iota
	StatePlaying
	StatePaused
)

// String returns a human-readable representation of the playback state.
func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// PlayerConfig carries the tunable session knobs.
type PlayerConfig struct {
	// InactivityTimeout is how long an idle session lingers before
	// disconnecting. Zero disables the timer.
	InactivityTimeout time.Duration
	// EmptyChannelTimeout is the grace period after the voice channel
	// empties before the session disconnects. Zero disables the timer.
	EmptyChannelTimeout time.Duration
	// SweepInterval is how often the background sweep resolves one pending
	// partial item. Zero disables sweeping.
	SweepInterval time.Duration
	// Proxies is the rotation list for outbound catalog traffic.
	Proxies []string
	// ProxyRotationInterval is how often the proxy rotates. Zero disables
	// rotation even when proxies are configured.
	ProxyRotationInterval time.Duration
}

// Player is the playback session for a single guild. It owns the queue, the
// current item, the owner assignment, and the skip vote tally, and it
// serializes all access through a single mutex.
type Player struct {
	guildID snowflake.ID
	botID   snowflake.ID
	cfg     PlayerConfig

	audio      ports.AudioPlayer
	voice      ports.VoiceConnection
	voiceState ports.VoiceStateProvider
	resolver   *Resolver
	proxied    ports.ProxyTarget
	bus        *events.Bus
	onTeardown func(guildID snowflake.ID)

	mu        sync.Mutex
	queue     *domain.Queue
	current   *domain.Item
	channelID snowflake.ID
	connected bool
	state     PlaybackState
	loop      bool
	skipVotes map[snowflake.ID]struct{}
	owner     *snowflake.ID
	closed    bool

	inactivityTimer *time.Timer
	graceTimer      *time.Timer
	proxyIndex      int

	done chan struct{}
	wg   sync.WaitGroup
}

// Compile-time check that Player implements events.Handler.
var _ events.Handler = (*Player)(nil)

// NewPlayer creates a disconnected session for a guild and starts its
// background loops. The caller must register it on the event bus.
func NewPlayer(
	guildID snowflake.ID,
	botID snowflake.ID,
	cfg PlayerConfig,
	audio ports.AudioPlayer,
	voice ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
	resolver *Resolver,
	proxied ports.ProxyTarget,
	bus *events.Bus,
	onTeardown func(guildID snowflake.ID),
) *Player {
	p := &Player{
		guildID:    guildID,
		botID:      botID,
		cfg:        cfg,
		audio:      audio,
		voice:      voice,
		voiceState: voiceState,
		resolver:   resolver,
		proxied:    proxied,
		bus:        bus,
		onTeardown: onTeardown,
		queue:      domain.NewQueue(),
		skipVotes:  make(map[snowflake.ID]struct{}),
		done:       make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		p.wg.Add(1)
		go p.sweepLoop()
	}
	if len(cfg.Proxies) > 0 && cfg.ProxyRotationInterval > 0 && proxied != nil {
		p.wg.Add(1)
		go p.proxyLoop()
	}

	return p
}

// GuildID returns the guild this session belongs to.
func (p *Player) GuildID() snowflake.ID {
	return p.guildID
}

// Connect joins the voice channel and records the invoker as session owner.
func (p *Player) Connect(ctx context.Context, channelID, invokerID snowflake.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return ErrAlreadyConnected
	}

	allowed, err := p.voiceState.HasConnectPermission(channelID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrNoAccess
	}

	if err := p.voice.JoinChannel(ctx, p.guildID, channelID); err != nil {
		return err
	}

	p.channelID = channelID
	p.connected = true
	p.owner = &invokerID

	slog.Info("session connected",
		"guild", p.guildID,
		"channel", channelID,
		"owner", invokerID,
	)
	return nil
}

// Disconnect tears the session down.
func (p *Player) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	p.teardownLocked(ctx)
	return nil
}

// teardownLocked releases every session resource. Callers hold p.mu. The
// background goroutines are signalled but not awaited here; they observe
// the closed flag and exit on their own.
func (p *Player) teardownLocked(ctx context.Context) {
	if p.closed {
		return
	}
	p.closed = true

	p.stopInactivityTimerLocked()
	p.stopGraceTimerLocked()
	close(p.done)

	p.queue.Clear()
	p.current = nil
	p.state = StateIdle
	p.loop = false
	p.skipVotes = make(map[snowflake.ID]struct{})
	p.owner = nil

	if err := p.audio.Stop(ctx, p.guildID); err != nil {
		slog.Warn("failed to stop audio on teardown", "guild", p.guildID, "error", err)
	}
	if p.connected {
		if err := p.voice.LeaveChannel(ctx, p.guildID); err != nil {
			slog.Warn("failed to leave voice channel on teardown", "guild", p.guildID, "error", err)
		}
		p.connected = false
	}

	p.bus.Unsubscribe(p.guildID)
	if p.onTeardown != nil {
		p.onTeardown(p.guildID)
	}

	slog.Info("session torn down", "guild", p.guildID)
}

// AddTrack enqueues a single item and starts playback if the session is idle.
func (p *Player) AddTrack(ctx context.Context, item *domain.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	p.queue.Push(item)
	if p.state == StateIdle {
		p.advanceLocked(ctx)
	}
	return nil
}

// AddPlaylist enqueues a playlist's items in order and starts playback if
// the session is idle.
func (p *Player) AddPlaylist(ctx context.Context, playlist *domain.Playlist) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	p.queue.Push(playlist.Items...)
	if p.state == StateIdle {
		p.advanceLocked(ctx)
	}
	return nil
}

// advanceLocked pops the next playable item and starts it. Partial items
// are resolved inline; items that fail to resolve or play are dropped and
// the loop continues. When the queue drains, the session goes idle and the
// inactivity timer is armed. Callers hold p.mu.
//
// The attempt bound covers the pathological case of every queued item
// failing: each iteration consumes one item, so queue length plus one
// (for a looped current item) iterations always terminates.
func (p *Player) advanceLocked(ctx context.Context) {
	if p.loop && p.current != nil {
		if err := p.audio.Play(ctx, p.guildID, p.current); err != nil {
			slog.Error("failed to replay looped track", "guild", p.guildID, "error", err)
			p.loop = false
		} else {
			p.state = StatePlaying
			return
		}
	}

	attempts := p.queue.Len() + 1
	for i := 0; i < attempts; i++ {
		item := p.queue.Pop()
		if item == nil {
			break
		}

		if !item.Playable() {
			resolved, err := p.resolver.ResolveItem(ctx, item)
			if err != nil {
				slog.Warn("dropping unresolvable queue item",
					"guild", p.guildID,
					"title", item.Title,
					"error", err,
				)
				continue
			}
			item = resolved
		}

		if err := p.audio.Play(ctx, p.guildID, item); err != nil {
			slog.Error("failed to start playback, dropping item",
				"guild", p.guildID,
				"title", item.Title,
				"error", err,
			)
			continue
		}

		p.current = item
		p.state = StatePlaying
		p.skipVotes = make(map[snowflake.ID]struct{})
		p.stopInactivityTimerLocked()

		slog.Info("playback started", "guild", p.guildID, "title", item.Title)
		return
	}

	p.current = nil
	p.state = StateIdle
	p.armInactivityTimerLocked()
}

// Skip stops the current track; the end event advances the queue.
func (p *Player) Skip(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}
	if p.state != StatePlaying && p.state != StatePaused {
		return ErrNotPlaying
	}

	p.loop = false
	return p.audio.Stop(ctx, p.guildID)
}

// VoteSkip registers or withdraws a skip vote for the invoker and skips
// when the tally reaches required. It returns the current tally.
func (p *Player) VoteSkip(ctx context.Context, voterID snowflake.ID, required int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return 0, ErrNotConnected
	}
	if p.loop {
		return 0, ErrDisableLoopingFirst
	}
	if p.state != StatePlaying && p.state != StatePaused {
		return 0, ErrNotPlaying
	}

	if _, voted := p.skipVotes[voterID]; voted {
		delete(p.skipVotes, voterID)
	} else {
		p.skipVotes[voterID] = struct{}{}
	}

	tally := len(p.skipVotes)
	if tally >= required {
		p.skipVotes = make(map[snowflake.ID]struct{})
		if err := p.audio.Stop(ctx, p.guildID); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

// Pause pauses playback. Pausing an already paused session is a no-op.
func (p *Player) Pause(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	switch p.state {
	case StatePaused:
		return nil
	case StatePlaying:
		if err := p.audio.Pause(ctx, p.guildID); err != nil {
			return err
		}
		p.state = StatePaused
		return nil
	default:
		return ErrNotPlaying
	}
}

// Resume resumes paused playback. Resuming while playing is a no-op.
func (p *Player) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	switch p.state {
	case StatePlaying:
		return nil
	case StatePaused:
		if err := p.audio.Resume(ctx, p.guildID); err != nil {
			return err
		}
		p.state = StatePlaying
		return nil
	default:
		return ErrNotPlaying
	}
}

// Stop clears the queue, disables looping, and stops the current track. The
// session stays connected and goes idle once the end event arrives.
func (p *Player) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	p.queue.Clear()
	p.loop = false
	return p.audio.Stop(ctx, p.guildID)
}

// Shuffle permutes the pending queue.
func (p *Player) Shuffle() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}
	if p.queue.IsEmpty() {
		return ErrNoTracksLeft
	}

	p.queue.Shuffle()
	return nil
}

// ToggleLoop flips loop mode and returns the new value.
func (p *Player) ToggleLoop() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return false, ErrNotConnected
	}

	p.loop = !p.loop
	return p.loop, nil
}

// Snapshot is a point-in-time view of the session for display.
type Snapshot struct {
	Current   *domain.Item
	Queue     []*domain.Item
	State     PlaybackState
	Loop      bool
	ChannelID snowflake.ID
	Owner     *snowflake.ID
	SkipVotes int
	// QueueDuration is the summed duration of every pending item.
	QueueDuration time.Duration
}

// Snapshot returns a consistent copy of the display-relevant state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		Current:   p.current,
		Queue:     p.queue.Items(),
		State:     p.state,
		Loop:      p.loop,
		ChannelID: p.channelID,
		Owner:     p.owner,
		SkipVotes: len(p.skipVotes),
		// DurationUntil over an absent item sums the whole queue.
		QueueDuration: p.queue.DurationUntil(nil),
	}
}

// Connected reports whether the session holds a voice connection.
func (p *Player) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// ChannelID returns the voice channel the session occupies.
func (p *Player) ChannelID() snowflake.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channelID
}

// Owner returns the current session owner, or nil when unassigned.
func (p *Player) Owner() *snowflake.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owner
}

// HandleTrackEnded reacts to the audio backend reporting the end of a track.
func (p *Player) HandleTrackEnded(ctx context.Context, event events.TrackEndedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.state = StateIdle
	if !event.Reason.ShouldAdvance() {
		return
	}
	if event.Reason != events.TrackEndFinished {
		// A stopped or failed track must not replay even in loop mode.
		p.current = nil
	}
	if p.connected {
		p.advanceLocked(ctx)
	}
}

// HandleVoiceStateChanged applies the occupancy and ownership policy when a
// user's voice membership changes.
func (p *Player) HandleVoiceStateChanged(ctx context.Context, event events.VoiceStateChangedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !p.connected {
		return
	}

	if event.UserID == p.botID {
		p.handleOwnVoiceChangeLocked(ctx, event)
		return
	}

	left := event.BeforeChannelID != nil && *event.BeforeChannelID == p.channelID &&
		(event.AfterChannelID == nil || *event.AfterChannelID != p.channelID)
	joined := event.AfterChannelID != nil && *event.AfterChannelID == p.channelID &&
		(event.BeforeChannelID == nil || *event.BeforeChannelID != p.channelID)

	if !left && !joined {
		return
	}

	if left {
		delete(p.skipVotes, event.UserID)
	}

	occupants := p.nonBotOccupantsLocked()

	if len(occupants) == 0 {
		p.owner = nil
		p.armGraceTimerLocked()
		return
	}
	p.stopGraceTimerLocked()

	if left && p.owner != nil && *p.owner == event.UserID {
		next := occupants[0]
		p.owner = &next
		slog.Info("session owner reassigned", "guild", p.guildID, "owner", next)
		return
	}

	if joined && p.owner == nil {
		p.owner = &event.UserID
		slog.Info("session owner assigned", "guild", p.guildID, "owner", event.UserID)
	}
}

// handleOwnVoiceChangeLocked tracks the bot's own channel membership: a
// forced move rebinds the session, a forced disconnect tears it down.
func (p *Player) handleOwnVoiceChangeLocked(ctx context.Context, event events.VoiceStateChangedEvent) {
	if event.AfterChannelID == nil {
		slog.Info("bot removed from voice channel", "guild", p.guildID)
		p.teardownLocked(ctx)
		return
	}

	if *event.AfterChannelID == p.channelID {
		return
	}

	p.channelID = *event.AfterChannelID
	p.skipVotes = make(map[snowflake.ID]struct{})

	occupants := p.nonBotOccupantsLocked()
	if len(occupants) == 0 {
		p.owner = nil
		p.armGraceTimerLocked()
		return
	}
	p.stopGraceTimerLocked()
	next := occupants[0]
	p.owner = &next
	slog.Info("session moved", "guild", p.guildID, "channel", p.channelID, "owner", next)
}

// nonBotOccupantsLocked lists the human occupants of the session's channel.
func (p *Player) nonBotOccupantsLocked() []snowflake.ID {
	members, err := p.voiceState.ChannelMembers(p.guildID, p.channelID)
	if err != nil {
		slog.Warn("failed to list channel members", "guild", p.guildID, "error", err)
		return nil
	}

	occupants := make([]snowflake.ID, 0, len(members))
	for _, m := range members {
		if !m.IsBot {
			occupants = append(occupants, m.ID)
		}
	}
	return occupants
}

// NonBotOccupantCount returns the number of human occupants in the
// session's channel.
func (p *Player) NonBotOccupantCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nonBotOccupantsLocked())
}

func (p *Player) armInactivityTimerLocked() {
	if p.cfg.InactivityTimeout <= 0 {
		return
	}
	p.stopInactivityTimerLocked()

	p.inactivityTimer = time.AfterFunc(p.cfg.InactivityTimeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.closed || !p.connected || p.state != StateIdle {
			return
		}
		slog.Info("disconnecting after inactivity", "guild", p.guildID)
		p.teardownLocked(context.Background())
	})
}

func (p *Player) stopInactivityTimerLocked() {
	if p.inactivityTimer != nil {
		p.inactivityTimer.Stop()
		p.inactivityTimer = nil
	}
}

func (p *Player) armGraceTimerLocked() {
	if p.cfg.EmptyChannelTimeout <= 0 {
		return
	}
	if p.graceTimer != nil {
		return
	}

	p.graceTimer = time.AfterFunc(p.cfg.EmptyChannelTimeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.closed || !p.connected {
			return
		}
		if len(p.nonBotOccupantsLocked()) > 0 {
			p.graceTimer = nil
			return
		}
		slog.Info("disconnecting from empty channel", "guild", p.guildID)
		p.teardownLocked(context.Background())
	})
}

func (p *Player) stopGraceTimerLocked() {
	if p.graceTimer != nil {
		p.graceTimer.Stop()
		p.graceTimer = nil
	}
}

// sweepLoop resolves one pending partial item per tick so catalog playlists
// become playable ahead of time without a burst of lookups.
func (p *Player) sweepLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.sweepOnce()
		}
	}
}

// sweepOnce picks the first partial item, resolves it without holding the
// lock, then swaps it in place if the item is still queued. Results arriving
// after teardown are discarded.
func (p *Player) sweepOnce() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	var target *domain.Item
	for _, item := range p.queue.Items() {
		if !item.Playable() {
			target = item
			break
		}
	}
	p.mu.Unlock()

	if target == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	resolved, err := p.resolver.ResolveItem(ctx, target)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if err != nil {
		if p.queue.Remove(target) {
			slog.Warn("dropping unresolvable queue item",
				"guild", p.guildID,
				"title", target.Title,
				"error", err,
			)
		}
		return
	}

	if p.queue.Replace(target, resolved) {
		slog.Debug("resolved queued item", "guild", p.guildID, "title", resolved.Title)
	}
}

// proxyLoop rotates the outbound proxy on a fixed interval.
func (p *Player) proxyLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.ProxyRotationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.rotateProxy()
		}
	}
}

func (p *Player) rotateProxy() {
	p.mu.Lock()
	p.proxyIndex = (p.proxyIndex + 1) % len(p.cfg.Proxies)
	proxy := p.cfg.Proxies[p.proxyIndex]
	p.mu.Unlock()

	if err := p.proxied.SetProxy(proxy); err != nil {
		slog.Warn("failed to rotate proxy", "guild", p.guildID, "error", err)
	}
}
