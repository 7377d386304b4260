package usecases

import (
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/events"
)

func newTestPool() *Pool {
	bus := events.NewBus(10)
	var pool *Pool
	pool = NewPool(func(guildID snowflake.ID) *Player {
		return NewPlayer(
			guildID,
			testBotID,
			PlayerConfig{},
			&mockAudioPlayer{},
			&mockVoiceConnection{},
			newMockVoiceStateProvider(),
			NewResolver(&mockTrackExtractor{}, nil, nil, ""),
			nil,
			bus,
			pool.Remove,
		)
	})
	return pool
}

func TestPool_GetOrCreate(t *testing.T) {
	pool := newTestPool()

	player := pool.GetOrCreate(snowflake.ID(1))
	if player == nil {
		t.Fatal("expected a player")
	}
	if player.GuildID() != snowflake.ID(1) {
		t.Errorf("expected guild 1, got %d", player.GuildID())
	}

	// The same guild returns the same session.
	if again := pool.GetOrCreate(snowflake.ID(1)); again != player {
		t.Error("expected the existing session to be returned")
	}
	if pool.Count() != 1 {
		t.Errorf("expected 1 session, got %d", pool.Count())
	}

	// A different guild gets its own session.
	other := pool.GetOrCreate(snowflake.ID(2))
	if other == player {
		t.Error("expected a distinct session per guild")
	}
	if pool.Count() != 2 {
		t.Errorf("expected 2 sessions, got %d", pool.Count())
	}
}

func TestPool_Get(t *testing.T) {
	pool := newTestPool()

	if pool.Get(snowflake.ID(1)) != nil {
		t.Error("expected nil for unknown guild")
	}

	created := pool.GetOrCreate(snowflake.ID(1))
	if got := pool.Get(snowflake.ID(1)); got != created {
		t.Error("expected the created session")
	}
}

func TestPool_RemoveIsIdempotent(t *testing.T) {
	pool := newTestPool()
	pool.GetOrCreate(snowflake.ID(1))

	pool.Remove(snowflake.ID(1))
	pool.Remove(snowflake.ID(1))

	if pool.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", pool.Count())
	}
	if pool.Get(snowflake.ID(1)) != nil {
		t.Error("expected removed session to be gone")
	}
}

func TestPool_ConcurrentGetOrCreate(t *testing.T) {
	pool := newTestPool()

	const goroutines = 16
	players := make([]*Player, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		i := i
		go func() {
			defer wg.Done()
			players[i] = pool.GetOrCreate(snowflake.ID(7))
		}()
	}
	wg.Wait()

	if pool.Count() != 1 {
		t.Fatalf("expected a single session, got %d", pool.Count())
	}
	for i := 1; i < goroutines; i++ {
		if players[i] != players[0] {
			t.Fatal("expected every goroutine to observe the same session")
		}
	}
}
