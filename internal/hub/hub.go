package hub

import (
	"context"
	"errors"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/lobby"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

// CreateLobby starts a lobby under Code, or returns the one already there.
type CreateLobby struct {
	Code  string
	Mode  engine.Mode
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type CountLobbies struct {
	Reply chan int
}

type ShutdownHub struct{}

// lobbyDone is posted by a lobby's watcher once it has shut itself down.
type lobbyDone struct {
	code string
	lb   *lobby.Lobby
}

func (CreateLobby) isHubMsg()  {}
func (GetLobby) isHubMsg()     {}
func (RemoveLobby) isHubMsg()  {}
func (CountLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}
func (lobbyDone) isHubMsg()    {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	deps    lobby.Deps
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub starts the registry; every lobby it creates shares deps.
func NewHub(parent context.Context, deps lobby.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		deps:    deps,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if lb := h.live(msg.Code); lb != nil {
					msg.Reply <- lb
					break
				}
				lb := lobby.NewLobby(h.ctx, msg.Code, msg.Mode, h.deps)
				h.lobbies[msg.Code] = lb
				go h.watch(msg.Code, lb)
				h.log.Info("lobby created", zap.String("lobby", msg.Code), zap.String("mode", string(msg.Mode)))
				msg.Reply <- lb

			case GetLobby:
				msg.Reply <- h.live(msg.Code) // May be nil

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					_ = lb.Send(lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("lobby", msg.Code))
				}

			case lobbyDone:
				// The code may already belong to a newer lobby.
				if h.lobbies[msg.code] == msg.lb {
					delete(h.lobbies, msg.code)
					h.log.Info("lobby closed", zap.String("lobby", msg.code))
				}

			case CountLobbies:
				msg.Reply <- len(h.lobbies)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) watch(code string, lb *lobby.Lobby) {
	select {
	case <-lb.Done():
	case <-h.ctx.Done():
		return
	}
	select {
	case h.inbox <- lobbyDone{code: code, lb: lb}:
	case <-h.ctx.Done():
	}
}

// live returns the lobby under code unless it has already shut down.
func (h *Hub) live(code string) *lobby.Lobby {
	lb := h.lobbies[code]
	if lb == nil {
		return nil
	}
	select {
	case <-lb.Done():
		delete(h.lobbies, code)
		return nil
	default:
		return lb
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		_ = lb.Send(lobby.Shutdown{})
	}
	clear(h.lobbies)
	h.cancel()
}

// Lookup is a convenience wrapper around GetLobby.
func (h *Hub) Lookup(ctx context.Context, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- GetLobby{Code: code, Reply: reply}:
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-ctx.Done():
		return nil
	case <-h.ctx.Done():
		return nil
	}
}

// Create asks the hub for a lobby under code, starting one if needed.
func (h *Hub) Create(ctx context.Context, code string, mode engine.Mode) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- CreateLobby{Code: code, Mode: mode, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, ErrClosed
	}
	select {
	case lb := <-reply:
		return lb, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, ErrClosed
	}
}
