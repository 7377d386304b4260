package music_player

import "time"

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`

	// Spotify credentials are optional; without them catalog links are
	// rejected instead of expanded.
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	// LocalMediaDir is the directory served by /playfile. Empty disables
	// local playback.
	LocalMediaDir string `env:"LOCAL_MEDIA_DIR"`

	// InactivityTimeout is how long an idle session lingers before
	// disconnecting. Zero disables the timer.
	InactivityTimeout time.Duration `env:"INACTIVITY_TIMEOUT" envDefault:"300s"`

	// EmptyChannelTimeout is the grace period before disconnecting from an
	// empty voice channel. Zero disables the timer.
	EmptyChannelTimeout time.Duration `env:"EMPTY_CHANNEL_TIMEOUT" envDefault:"300s"`

	// ResolveSweepInterval is how often pending catalog items are resolved
	// in the background. Zero disables sweeping.
	ResolveSweepInterval time.Duration `env:"RESOLVE_SWEEP_INTERVAL" envDefault:"30s"`

	// Proxies is a comma-separated rotation list for outbound catalog
	// traffic.
	Proxies []string `env:"PROXIES" envSeparator:","`

	// ProxyRotationInterval is how often the catalog proxy rotates.
	ProxyRotationInterval time.Duration `env:"PROXY_ROTATION_INTERVAL" envDefault:"600s"`

	// PrivilegeThreshold is the channel occupancy below which owner-only
	// controls are open to everyone.
	PrivilegeThreshold int `env:"PRIVILEGE_THRESHOLD" envDefault:"3"`

	// VoteSkipRatio is the divisor for the vote-skip quorum,
	// ceil(occupants / ratio).
	VoteSkipRatio float64 `env:"VOTE_SKIP_RATIO" envDefault:"2.5"`
}
