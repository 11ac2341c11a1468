package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/highscore"
	"github.com/DoyleJ11/nhl-pickem/internal/hub"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
	"github.com/DoyleJ11/nhl-pickem/internal/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type gameRequest struct {
	Mode string `json:"mode"`
}

type pickRequest struct {
	PlayerID string `json:"player_id"`
	Slot     string `json:"slot,omitempty"`
	Seat     string `json:"seat,omitempty"`
}

type lobbyResponse struct {
	Code string `json:"code"`
	types.ServerMessage
}

type highScoreResponse struct {
	Mode  engine.Mode `json:"mode"`
	Key   string      `json:"key"`
	Value float64     `json:"value"`
}

type api struct {
	hub    *hub.Hub
	scores highscore.Store
	log    *zap.Logger
}

func (a *api) createLobby(w http.ResponseWriter, r *http.Request) {
	mode, err := decodeMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var code string
	for {
		c, err := GenerateCode()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to generate code: %w", err))
			return
		}
		if a.hub.Lookup(r.Context(), c) == nil {
			code = c
			break
		}
		a.log.Debug("collision on code, regenerating", zap.String("code", c))
	}

	lb, err := a.hub.Create(r.Context(), code, mode)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("failed to create lobby: %w", err))
		return
	}
	if lb == nil {
		writeError(w, http.StatusInternalServerError, errors.New("failed to create lobby"))
		return
	}

	view, err := lobby.Ask(r.Context(), lb, func(reply chan lobby.View) lobby.Msg { return lobby.GetState{Reply: reply} })
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, lobbyResponse{Code: code, ServerMessage: types.FromView(view)})
}

func (a *api) getLobby(w http.ResponseWriter, r *http.Request) {
	lb, ok := a.lobby(w, r)
	if !ok {
		return
	}
	view, err := lobby.Ask(r.Context(), lb, func(reply chan lobby.View) lobby.Msg { return lobby.GetState{Reply: reply} })
	if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbyResponse{Code: lb.Code(), ServerMessage: types.FromView(view)})
}

func (a *api) newGame(w http.ResponseWriter, r *http.Request) {
	lb, ok := a.lobby(w, r)
	if !ok {
		return
	}
	mode, err := decodeMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if _, err := lobby.Ask(r.Context(), lb, func(reply chan lobby.Result) lobby.Msg {
		return lobby.NewGame{Mode: mode, Reply: reply}
	}); err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	view, err := lobby.Ask(r.Context(), lb, func(reply chan lobby.View) lobby.Msg { return lobby.GetState{Reply: reply} })
	if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	writeJSON(w, http.StatusCreated, lobbyResponse{Code: lb.Code(), ServerMessage: types.FromView(view)})
}

func (a *api) listPlayers(w http.ResponseWriter, r *http.Request) {
	lb, ok := a.lobby(w, r)
	if !ok {
		return
	}

	var slot engine.Slot
	if raw := r.URL.Query().Get("slot"); raw != "" {
		s, ok := engine.ParseSlot(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown slot %q", raw))
			return
		}
		slot = s
	}
	search := r.URL.Query().Get("q")

	players, err := lobby.Ask(r.Context(), lb, func(reply chan []engine.Candidate) lobby.Msg {
		return lobby.ListEligible{Slot: slot, Search: search, Reply: reply}
	})
	if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	if players == nil {
		players = []engine.Candidate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (a *api) commitPick(w http.ResponseWriter, r *http.Request) {
	lb, ok := a.lobby(w, r)
	if !ok {
		return
	}

	var req pickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad json: %w", err))
		return
	}
	var slot engine.Slot
	if req.Slot != "" {
		s, ok := engine.ParseSlot(req.Slot)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown slot %q", req.Slot))
			return
		}
		slot = s
	}

	cmd := engine.Command{Type: engine.CmdCommitPick, Seat: types.ParseSeat(req.Seat), PlayerID: req.PlayerID, Slot: slot}
	res, err := lobby.Ask(r.Context(), lb, func(reply chan lobby.Result) lobby.Msg {
		return lobby.FromClient{Cmd: cmd, Reply: reply}
	})
	if err != nil {
		writeError(w, http.StatusGone, err)
		return
	}
	if res.Err != nil {
		writeError(w, pickStatus(res.Err), res.Err)
		return
	}

	state := res.State
	writeJSON(w, http.StatusOK, types.ServerMessage{
		Type:    types.MsgStateSnapshot,
		Version: res.Version,
		State:   &state,
		OnClock: state.OnClock().String(),
		Round:   min(state.Round(), engine.SlotCount),
	})
}

func (a *api) getHighScore(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseModeParam(w, r)
	if !ok {
		return
	}
	value, err := a.scores.Get(r.Context(), mode)
	if err != nil {
		a.log.Error("high score read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, highScoreResponse{Mode: mode, Key: highscore.Key(mode), Value: value})
}

func (a *api) resetHighScore(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseModeParam(w, r)
	if !ok {
		return
	}
	if err := a.scores.Reset(r.Context(), mode); err != nil {
		a.log.Error("high score reset failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (a *api) lobby(w http.ResponseWriter, r *http.Request) (*lobby.Lobby, bool) {
	code := chi.URLParam(r, "code")
	lb := a.hub.Lookup(r.Context(), code)
	if lb == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("lobby %q not found", code))
		return nil, false
	}
	return lb, true
}

// decodeMode reads {"mode": ...}; an empty body means single.
func decodeMode(r *http.Request) (engine.Mode, error) {
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("bad json: %w", err)
	}
	if req.Mode == "" {
		return engine.ModeSingle, nil
	}
	mode, ok := engine.ParseMode(req.Mode)
	if !ok {
		return "", fmt.Errorf("unknown mode %q", req.Mode)
	}
	return mode, nil
}

func parseModeParam(w http.ResponseWriter, r *http.Request) (engine.Mode, bool) {
	raw := chi.URLParam(r, "mode")
	mode, ok := engine.ParseMode(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown mode %q", raw))
		return "", false
	}
	return mode, true
}

// pickStatus: 422 when the request itself can never succeed, 409 when it
// conflicts with the current game state.
func pickStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrIneligible), errors.Is(err, engine.ErrUnknownPlayer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrUnsupportedCommand):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}{Error: err.Error(), Code: types.ErrorCode(err)})
}
