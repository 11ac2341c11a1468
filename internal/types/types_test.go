package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSnapshot_Kinds(t *testing.T) {
	state := engine.State{Mode: engine.ModeSingle, Status: engine.StatusAwaitingPick, Rosters: make([]engine.Roster, 1), Scores: []float64{0}}

	tests := []struct {
		kind      lobby.Kind
		wantType  string
		wantState bool
	}{
		{lobby.KindStateChanged, MsgStateSnapshot, true},
		{lobby.KindTick, MsgTick, false},
		{lobby.KindGameComplete, MsgGameComplete, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			msg := FromSnapshot(lobby.Snapshot{Version: 4, Kind: tt.kind, State: state, OnClock: engine.SeatPlayer1, SecondsRemaining: 12})
			assert.Equal(t, tt.wantType, msg.Type)
			assert.Equal(t, 4, msg.Version)
			assert.Equal(t, 12, msg.SecondsRemaining)
			assert.Equal(t, "player1", msg.OnClock)
			assert.Equal(t, tt.wantState, msg.State != nil)
		})
	}
}

func TestErrorMessage_CarriesCode(t *testing.T) {
	msg := ErrorMessage(engine.ErrSlotFull)

	b, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Error","error":"slot full","code":"SLOT_FULL","seconds_remaining":0,"high_score":0}`, string(b))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "UNSUPPORTED", ErrorCode(engine.ErrUnsupportedCommand))
	assert.Equal(t, "NOT_ACTIVE_TEAM", ErrorCode(fmt.Errorf("commit: %w", engine.ErrNotActiveTeam)))
	assert.Equal(t, CodeBadRequest, ErrorCode(errors.New("mode \"triple\"")))
}

func TestParseSeat(t *testing.T) {
	assert.Equal(t, engine.SeatPlayer1, ParseSeat("player1"))
	assert.Equal(t, engine.SeatPlayer2, ParseSeat("2"))
	assert.Equal(t, engine.SeatNone, ParseSeat(""))
}
