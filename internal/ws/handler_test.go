package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/dataset"
	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/hub"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
	"github.com/DoyleJ11/nhl-pickem/internal/types"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testPlayers() []engine.Player {
	var out []engine.Player
	for _, team := range []string{"CHI", "DET"} {
		out = append(out,
			engine.Player{ID: team + "-C", Name: team + " Center", Team: team, Positions: []engine.Position{engine.PosC}, Value: 5},
			engine.Player{ID: team + "-LW", Name: team + " Winger", Team: team, Positions: []engine.Position{engine.PosLW}, Value: 4},
			engine.Player{ID: team + "-G", Name: team + " Goalie", Team: team, Positions: []engine.Position{engine.PosG}, Value: 3},
		)
	}
	return out
}

func setup(t *testing.T) (*httptest.Server, *lobby.Lobby) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zaptest.NewLogger(t)
	h := hub.NewHub(ctx, lobby.Deps{
		Catalogs: dataset.NewStaticProvider(testPlayers()),
		Clock:    clockwork.NewFakeClock(),
		Log:      log,
	})
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.CreateLobby{Code: "WS0001", Mode: engine.ModeSingle, Reply: reply}
	lb := <-reply

	// The handler logs disconnects after the test body returns, so it gets a no-op logger.
	srv := httptest.NewServer(Handler(h, Options{OriginPatterns: []string{"*"}, Log: zap.NewNop()}))
	t.Cleanup(srv.Close)
	return srv, lb
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?code=" + code
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg types.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, cm types.ClientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, cm))
}

func TestHandler_JoinListCommit(t *testing.T) {
	srv, _ := setup(t)
	conn := dial(t, srv, "WS0001")

	first := readMsg(t, conn)
	require.Equal(t, types.MsgStateSnapshot, first.Type)
	require.NotNil(t, first.State)
	team := first.State.ActiveTeam

	send(t, conn, types.ClientMessage{Type: types.MsgListEligible, Slot: "c"})
	list := readMsg(t, conn)
	require.Equal(t, types.MsgEligible, list.Type)
	require.Len(t, list.Players, 1)
	assert.Equal(t, team+"-C", list.Players[0].Player.ID)

	send(t, conn, types.ClientMessage{Type: types.MsgCommitPick, PlayerID: team + "-C"})
	next := readMsg(t, conn)
	assert.Equal(t, types.MsgStateSnapshot, next.Type)
	assert.Equal(t, first.Version+1, next.Version)
	assert.True(t, next.FiltersReset)
	assert.Equal(t, 5.0, next.State.Scores[0])
}

func TestHandler_ErrorsGoToSender(t *testing.T) {
	srv, _ := setup(t)
	conn := dial(t, srv, "WS0001")
	_ = readMsg(t, conn)

	send(t, conn, types.ClientMessage{Type: types.MsgCommitPick, PlayerID: "nobody"})
	msg := readMsg(t, conn)
	assert.Equal(t, types.MsgError, msg.Type)
	assert.Equal(t, "UNKNOWN_PLAYER", msg.Code)

	send(t, conn, types.ClientMessage{Type: "Dance"})
	msg = readMsg(t, conn)
	assert.Equal(t, types.MsgError, msg.Type)
	assert.Equal(t, types.CodeBadRequest, msg.Code)

	send(t, conn, types.ClientMessage{Type: types.MsgSetFilters, Slot: "GOALIE"})
	msg = readMsg(t, conn)
	assert.Equal(t, types.CodeBadRequest, msg.Code)
}

func TestHandler_UnknownLobby(t *testing.T) {
	srv, _ := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?code=NOPE00"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestDispatch_NewGameAndFilters(t *testing.T) {
	_, lb := setup(t)
	ctx := context.Background()

	_, err := Dispatch(ctx, lb, types.ClientMessage{Type: types.MsgSetFilters, Slot: "G", Search: "goal"})
	require.NoError(t, err)
	view, err := lobby.Ask(ctx, lb, func(reply chan lobby.View) lobby.Msg { return lobby.GetState{Reply: reply} })
	require.NoError(t, err)
	assert.Equal(t, lobby.Filters{Slot: engine.SlotG, Search: "goal"}, view.Filters)

	_, err = Dispatch(ctx, lb, types.ClientMessage{Type: types.MsgNewGame, Mode: "versus"})
	require.NoError(t, err)
	view, err = lobby.Ask(ctx, lb, func(reply chan lobby.View) lobby.Msg { return lobby.GetState{Reply: reply} })
	require.NoError(t, err)
	assert.Equal(t, engine.ModeVersus, view.State.Mode)
	assert.Equal(t, lobby.Filters{}, view.Filters)

	_, err = Dispatch(ctx, lb, types.ClientMessage{Type: types.MsgNewGame})
	require.NoError(t, err)
	view, err = lobby.Ask(ctx, lb, func(reply chan lobby.View) lobby.Msg { return lobby.GetState{Reply: reply} })
	require.NoError(t, err)
	assert.Equal(t, engine.ModeSingle, view.State.Mode, "no mode means single")

	_, err = Dispatch(ctx, lb, types.ClientMessage{Type: types.MsgNewGame, Mode: "triple"})
	assert.ErrorIs(t, err, ErrBadArgument)
}
