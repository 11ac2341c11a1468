package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/dataset"
	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/highscore"
	"github.com/DoyleJ11/nhl-pickem/internal/hub"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testServer struct {
	handler http.Handler
	scores  *highscore.MemoryStore
	hub     *hub.Hub
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	players := []engine.Player{
		{ID: "tor-c", Name: "Auston Matthews", Team: "TOR", Positions: []engine.Position{engine.PosC}, Value: 90},
		{ID: "tor-rw", Name: "Mitch Marner", Team: "TOR", Positions: []engine.Position{engine.PosRW}, Value: 80},
		{ID: "tor-g", Name: "Joseph Woll", Team: "TOR", Positions: []engine.Position{engine.PosG}, Value: 40},
	}
	scores := highscore.NewMemoryStore()
	log := zaptest.NewLogger(t)
	h := hub.NewHub(ctx, lobby.Deps{
		Catalogs: dataset.NewStaticProvider(players),
		Scores:   scores,
		Clock:    clockwork.NewFakeClock(),
		Log:      log,
	})
	return testServer{
		handler: SetupRoutes(Deps{Hub: h, Scores: scores, AllowedOrigins: []string{"*"}, Log: log}),
		scores:  scores,
		hub:     h,
	}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type lobbyBody struct {
	Code    string       `json:"code"`
	Type    string       `json:"type"`
	Version int          `json:"version"`
	State   engine.State `json:"state"`
	OnClock string       `json:"on_clock"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createLobby(t *testing.T, s testServer, mode string) lobbyBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/lobbies", `{"mode":"`+mode+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[lobbyBody](t, rec)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateLobby(t *testing.T) {
	s := newTestServer(t)
	body := createLobby(t, s, "versus")

	assert.Len(t, body.Code, 6)
	assert.Equal(t, engine.ModeVersus, body.State.Mode)
	assert.Equal(t, "TOR", body.State.ActiveTeam)
	assert.Equal(t, "player1", body.OnClock)

	rec := s.do(t, http.MethodGet, "/lobbies/"+body.Code, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body.Code, decode[lobbyBody](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/lobbies", `{"mode":"triple"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLobby_HubClosed(t *testing.T) {
	s := newTestServer(t)
	s.hub.Inbox() <- hub.ShutdownHub{}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- s.do(t, http.MethodPost, "/lobbies", "") }()

	select {
	case rec := <-done:
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	case <-time.After(time.Second):
		t.Fatal("create lobby hung after hub shutdown")
	}
}

func TestUnknownLobby(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/lobbies/NOPE00", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPlayers(t *testing.T) {
	s := newTestServer(t)
	code := createLobby(t, s, "single").Code

	rec := s.do(t, http.MethodGet, "/lobbies/"+code+"/players?slot=FLEX", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Players []engine.Candidate `json:"players"`
	}](t, rec)
	require.Len(t, body.Players, 2)
	assert.Equal(t, "Auston Matthews", body.Players[0].Player.Name)
	assert.True(t, body.Players[0].Draftable)

	rec = s.do(t, http.MethodGet, "/lobbies/"+code+"/players?q=woll", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[struct {
		Players []engine.Candidate `json:"players"`
	}](t, rec)
	require.Len(t, body.Players, 1)
	assert.Equal(t, "tor-g", body.Players[0].Player.ID)

	rec = s.do(t, http.MethodGet, "/lobbies/"+code+"/players?slot=QB", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitPick(t *testing.T) {
	s := newTestServer(t)
	code := createLobby(t, s, "single").Code

	rec := s.do(t, http.MethodPost, "/lobbies/"+code+"/picks", `{"player_id":"tor-c"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[lobbyBody](t, rec)
	assert.Equal(t, 1, body.State.Pick)
	assert.Equal(t, 90.0, body.State.Scores[0])
	require.NotNil(t, body.State.Rosters[0].Slots[0])
	assert.Equal(t, "tor-c", body.State.Rosters[0].Slots[0].ID)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"already drafted", `{"player_id":"tor-c"}`, http.StatusConflict, "ALREADY_DRAFTED"},
		{"ineligible", `{"player_id":"tor-g","slot":"RW"}`, http.StatusUnprocessableEntity, "INELIGIBLE"},
		{"slot full", `{"player_id":"tor-rw","slot":"C"}`, http.StatusConflict, "SLOT_FULL"},
		{"unknown player", `{"player_id":"nobody"}`, http.StatusUnprocessableEntity, "UNKNOWN_PLAYER"},
		{"wrong turn", `{"player_id":"tor-rw","seat":"player2"}`, http.StatusConflict, "WRONG_TURN"},
		{"bad slot", `{"player_id":"tor-rw","slot":"QB"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad json", `{`, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/lobbies/"+code+"/picks", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			errBody := decode[struct {
				Code string `json:"code"`
			}](t, rec)
			assert.Equal(t, tt.code, errBody.Code)
		})
	}
}

func TestNewGame_ResetsLobby(t *testing.T) {
	s := newTestServer(t)
	code := createLobby(t, s, "single").Code

	rec := s.do(t, http.MethodPost, "/lobbies/"+code+"/picks", `{"player_id":"tor-c"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/lobbies/"+code+"/games", `{"mode":"versus"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[lobbyBody](t, rec)
	assert.Equal(t, engine.ModeVersus, body.State.Mode)
	assert.Equal(t, 0, body.State.Pick)
	assert.Len(t, body.State.Rosters, 2)
}

func TestHighScores(t *testing.T) {
	s := newTestServer(t)
	_, _, err := s.scores.Record(context.Background(), engine.ModeSingle, 123.4)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/highscores/single", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[highScoreResponse](t, rec)
	assert.Equal(t, 123.4, body.Value)
	assert.Equal(t, "nhl_pickem_highscore_v3_single", body.Key)

	rec = s.do(t, http.MethodDelete, "/highscores/single", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/highscores/single", "")
	assert.Equal(t, 0.0, decode[highScoreResponse](t, rec).Value)

	rec = s.do(t, http.MethodGet, "/highscores/doubles", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/lobbies", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
