package usecases

import (
	"math"

	"github.com/disgoorg/snowflake/v2"
)

// DefaultVoteSkipRatio is the divisor for the vote-skip quorum.
const DefaultVoteSkipRatio = 2.5

// RequiredVotes returns the number of votes needed to skip, given the count
// of non-bot occupants in the channel. The quorum is ceil(n / ratio) with a
// floor of one vote.
func RequiredVotes(nonBotCount int, ratio float64) int {
	if ratio <= 0 {
		ratio = DefaultVoteSkipRatio
	}
	if nonBotCount <= 0 {
		return 1
	}
	required := int(math.Ceil(float64(nonBotCount) / ratio))
	if required < 1 {
		return 1
	}
	return required
}

// IsPrivileged reports whether the invoker may run owner-only controls.
// The session owner and users with elevated guild permissions always
// qualify. When the channel holds fewer non-bot occupants than threshold,
// the restriction is waived for everyone.
func IsPrivileged(
	invokerID snowflake.ID,
	owner *snowflake.ID,
	hasElevated bool,
	nonBotCount int,
	threshold int,
) bool {
	if hasElevated {
		return true
	}
	if owner != nil && *owner == invokerID {
		return true
	}
	return nonBotCount < threshold
}
