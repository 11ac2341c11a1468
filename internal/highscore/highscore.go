// Package highscore keeps the best completed-game score per mode. Scores only
// ever ratchet upward; Reset is the one explicit way back to zero.
package highscore

import (
	"context"
	"errors"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
)

// KeyPrefix is versioned: bump it whenever the stored value changes meaning.
// v3 stores the unrounded final score written when a game completes.
const KeyPrefix = "nhl_pickem_highscore_v3_"

var ErrNegativeScore = errors.New("score must be non-negative")

func Key(mode engine.Mode) string { return KeyPrefix + string(mode) }

type Store interface {
	Get(ctx context.Context, mode engine.Mode) (float64, error)
	// Record stores score if it beats the current best and returns the best
	// after the call.
	Record(ctx context.Context, mode engine.Mode, score float64) (best float64, improved bool, err error)
	Reset(ctx context.Context, mode engine.Mode) error
}

func ratchet(current, score float64) (float64, bool) {
	if score > current {
		return score, true
	}
	return current, false
}
