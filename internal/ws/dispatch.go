package ws

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
	"github.com/DoyleJ11/nhl-pickem/internal/types"
)

var ErrUnknownMessage = errors.New("unknown message type")
var ErrBadArgument = errors.New("bad argument")

// Dispatch turns one client message into lobby traffic. Snapshots reach the
// client through its outbox; the returned message, if any, is a direct reply.
func Dispatch(ctx context.Context, lb *lobby.Lobby, cm types.ClientMessage) (*types.ServerMessage, error) {
	switch cm.Type {
	case types.MsgCommitPick:
		slot, err := parseSlot(cm.Slot)
		if err != nil {
			return nil, err
		}
		cmd := engine.Command{Type: engine.CmdCommitPick, Seat: types.ParseSeat(cm.Seat), PlayerID: cm.PlayerID, Slot: slot}
		res, err := lobby.Ask(ctx, lb, func(reply chan lobby.Result) lobby.Msg {
			return lobby.FromClient{Cmd: cmd, Reply: reply}
		})
		if err != nil {
			return nil, err
		}
		return nil, res.Err

	case types.MsgNewGame:
		mode := engine.ModeSingle // same default as POST /lobbies
		if cm.Mode != "" {
			var ok bool
			if mode, ok = engine.ParseMode(cm.Mode); !ok {
				return nil, fmt.Errorf("%w: mode %q", ErrBadArgument, cm.Mode)
			}
		}
		return nil, lb.Send(lobby.NewGame{Mode: mode})

	case types.MsgSetFilters:
		slot, err := parseSlot(cm.Slot)
		if err != nil {
			return nil, err
		}
		return nil, lb.Send(lobby.SetFilters{Slot: slot, Search: cm.Search})

	case types.MsgClearFilters:
		return nil, lb.Send(lobby.ClearFilters{})

	case types.MsgListEligible:
		slot, err := parseSlot(cm.Slot)
		if err != nil {
			return nil, err
		}
		players, err := lobby.Ask(ctx, lb, func(reply chan []engine.Candidate) lobby.Msg {
			return lobby.ListEligible{Slot: slot, Search: cm.Search, Reply: reply}
		})
		if err != nil {
			return nil, err
		}
		return &types.ServerMessage{Type: types.MsgEligible, Players: players}, nil

	case types.MsgResetHighScore:
		resetErr, err := lobby.Ask(ctx, lb, func(reply chan error) lobby.Msg {
			return lobby.ResetHighScore{Reply: reply}
		})
		if err != nil {
			return nil, err
		}
		return nil, resetErr

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, cm.Type)
	}
}

func parseSlot(raw string) (engine.Slot, error) {
	if raw == "" {
		return "", nil
	}
	slot, ok := engine.ParseSlot(raw)
	if !ok {
		return "", fmt.Errorf("%w: slot %q", ErrBadArgument, raw)
	}
	return slot, nil
}
