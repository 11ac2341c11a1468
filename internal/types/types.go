package types

import (
	"errors"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
)

// Client -> server message types.
const (
	MsgCommitPick     = "CommitPick"
	MsgNewGame        = "NewGame"
	MsgSetFilters     = "SetFilters"
	MsgClearFilters   = "ClearFilters"
	MsgListEligible   = "ListEligible"
	MsgResetHighScore = "ResetHighScore"
)

// Server -> client message types.
const (
	MsgStateSnapshot = "StateSnapshot"
	MsgTick          = "Tick"
	MsgGameComplete  = "GameComplete"
	MsgEligible      = "EligiblePlayers"
	MsgError         = "Error"
)

type ClientMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id,omitempty"`
	Slot     string `json:"slot,omitempty"`
	Search   string `json:"search,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Seat     string `json:"seat,omitempty"`
}

type ServerMessage struct {
	Type             string             `json:"type"`
	Version          int                `json:"version,omitempty"`
	State            *engine.State      `json:"state,omitempty"`
	OnClock          string             `json:"on_clock,omitempty"`
	Round            int                `json:"round,omitempty"`
	SecondsRemaining int                `json:"seconds_remaining"`
	Filters          *lobby.Filters     `json:"filters,omitempty"`
	FiltersReset     bool               `json:"filters_reset,omitempty"`
	HighScore        float64            `json:"high_score"`
	NewHighScore     bool               `json:"new_high_score,omitempty"`
	Players          []engine.Candidate `json:"players,omitempty"`
	Error            string             `json:"error,omitempty"`
	Code             string             `json:"code,omitempty"`
}

// FromSnapshot maps a lobby snapshot onto the wire message its kind calls for.
// Ticks stay small: they carry the countdown but not the full state.
func FromSnapshot(snap lobby.Snapshot) ServerMessage {
	msg := ServerMessage{
		Version:          snap.Version,
		OnClock:          snap.OnClock.String(),
		Round:            snap.Round,
		SecondsRemaining: snap.SecondsRemaining,
		HighScore:        snap.HighScore,
	}
	switch snap.Kind {
	case lobby.KindTick:
		msg.Type = MsgTick
		return msg
	case lobby.KindGameComplete:
		msg.Type = MsgGameComplete
	default:
		msg.Type = MsgStateSnapshot
	}

	state := snap.State
	filters := snap.Filters
	msg.State = &state
	msg.Filters = &filters
	msg.FiltersReset = snap.FiltersReset
	msg.NewHighScore = snap.NewHighScore
	return msg
}

// FromView is the HTTP rendering of a lobby's current state.
func FromView(v lobby.View) ServerMessage {
	state := v.State
	filters := v.Filters
	return ServerMessage{
		Type:             MsgStateSnapshot,
		Version:          v.Version,
		State:            &state,
		OnClock:          state.OnClock().String(),
		Round:            min(state.Round(), engine.SlotCount),
		SecondsRemaining: v.SecondsRemaining,
		Filters:          &filters,
		HighScore:        v.HighScore,
	}
}

const CodeBadRequest = "BAD_REQUEST"

// ErrorCode is the engine's tag for rejected picks and BAD_REQUEST for
// anything the engine never saw.
func ErrorCode(err error) string {
	code := engine.Code(err)
	if code == "UNSUPPORTED" && !errors.Is(err, engine.ErrUnsupportedCommand) {
		return CodeBadRequest
	}
	return code
}

func ErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: MsgError, Error: err.Error(), Code: ErrorCode(err)}
}

// ParseSeat accepts "player1"/"player2"; anything else means "whoever is on
// the clock".
func ParseSeat(raw string) engine.Seat {
	switch raw {
	case "player1", "1":
		return engine.SeatPlayer1
	case "player2", "2":
		return engine.SeatPlayer2
	default:
		return engine.SeatNone
	}
}
