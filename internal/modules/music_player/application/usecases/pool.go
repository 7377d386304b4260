package usecases

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// PlayerFactory builds a session for a guild. The factory wires the new
// player onto the event bus and points its teardown hook back at the pool.
type PlayerFactory func(guildID snowflake.ID) *Player

// Pool maps guilds to their playback sessions. At most one session exists
// per guild at a time.
type Pool struct {
	mu      sync.RWMutex
	players map[snowflake.ID]*Player
	factory PlayerFactory
}

// NewPool creates an empty Pool.
func NewPool(factory PlayerFactory) *Pool {
	return &Pool{
		players: make(map[snowflake.ID]*Player),
		factory: factory,
	}
}

// GetOrCreate returns the guild's session, creating one if absent.
func (p *Pool) GetOrCreate(guildID snowflake.ID) *Player {
	p.mu.Lock()
	defer p.mu.Unlock()

	if player, ok := p.players[guildID]; ok {
		return player
	}

	player := p.factory(guildID)
	p.players[guildID] = player
	return player
}

// Get returns the guild's session, or nil if none exists.
func (p *Pool) Get(guildID snowflake.ID) *Player {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.players[guildID]
}

// Remove drops the guild's session from the pool. Removing an absent guild
// is a no-op, so teardown hooks may fire more than once.
func (p *Pool) Remove(guildID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.players, guildID)
}

// Count returns the number of live sessions.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.players)
}
