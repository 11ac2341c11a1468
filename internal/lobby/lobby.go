package lobby

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/DoyleJ11/nhl-pickem/internal/highscore"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	Cmd   engine.Command
	Reply chan Result // optional
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type NewGame struct {
	Mode  engine.Mode
	Reply chan Result // optional
}

func (NewGame) isLobbyMsg() {}

// SetFilters replaces the position filter (which is also the target slot for
// the next pick) and the search text.
type SetFilters struct {
	Slot   engine.Slot
	Search string
}

func (SetFilters) isLobbyMsg() {}

type ClearFilters struct{}

func (ClearFilters) isLobbyMsg() {}

type ListEligible struct {
	Slot   engine.Slot
	Search string
	Reply  chan []engine.Candidate
}

func (ListEligible) isLobbyMsg() {}

type ResetHighScore struct {
	Reply chan error // optional
}

func (ResetHighScore) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type Kind string

const (
	KindStateChanged Kind = "StateChanged"
	KindTick         Kind = "Tick"
	KindGameComplete Kind = "GameComplete"
)

type Filters struct {
	Slot   engine.Slot `json:"slot,omitempty"`
	Search string      `json:"search,omitempty"`
}

// Snapshot is what observers receive. Ticks repeat the current version.
type Snapshot struct {
	Version          int
	Kind             Kind
	State            engine.State
	OnClock          engine.Seat
	Round            int
	SecondsRemaining int
	Filters          Filters
	FiltersReset     bool
	HighScore        float64
	NewHighScore     bool
	Events           []engine.Event
}

type View struct {
	Version          int
	NumClients       int
	State            engine.State
	Filters          Filters
	SecondsRemaining int
	HighScore        float64
}

type Result struct {
	Version int
	State   engine.State
	Events  []engine.Event
	Err     error
}

// CatalogSource hands out the player catalog for the next game.
type CatalogSource interface {
	Catalog() *engine.Catalog
}

type Deps struct {
	Catalogs         CatalogSource
	Scores           highscore.Store
	Clock            clockwork.Clock
	PickTime         time.Duration
	IdleTimeout      time.Duration // shut down after this long with no clients
	RotationAttempts int
	Rand             *rand.Rand
	Log              *zap.Logger
}

const (
	DefaultPickTime    = 30 * time.Second
	DefaultIdleTimeout = 10 * time.Minute
)

func (d Deps) withDefaults() Deps {
	if d.Scores == nil {
		d.Scores = highscore.NewMemoryStore()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.PickTime < time.Second {
		d.PickTime = DefaultPickTime
	}
	if d.IdleTimeout <= 0 {
		d.IdleTimeout = DefaultIdleTimeout
	}
	if d.RotationAttempts <= 0 {
		d.RotationAttempts = engine.DefaultRotationAttempts
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

type Lobby struct {
	code    string
	inbox   chan Msg
	deps    Deps
	log     *zap.Logger
	eng     *engine.Engine
	state   engine.State
	version int
	clients map[string]chan Snapshot
	filters Filters

	highScore    float64
	newHighScore bool

	ticker    clockwork.Ticker
	tickC     <-chan time.Time // nil while no countdown runs
	remaining int

	idle  clockwork.Timer
	idleC <-chan time.Time // nil while clients are attached

	ctx    context.Context
	cancel context.CancelFunc
}

// NewLobby starts the lobby goroutine with a fresh game in the given mode.
func NewLobby(parent context.Context, code string, mode engine.Mode, deps Deps) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	deps = deps.withDefaults()

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64), // Small buffer
		deps:    deps,
		log:     deps.Log.With(zap.String("lobby", code)),
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
	}
	l.startGame(mode)
	l.armIdle()

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case <-l.tickC:
			l.tick()

		case <-l.idleC:
			l.log.Info("lobby idle, shutting down", zap.Duration("idle", l.deps.IdleTimeout))
			l.shutdown()
			return

		case m := <-l.inbox:
			if l.idleC != nil {
				l.armIdle() // activity without clients still counts
			}
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				l.disarmIdle()
				l.resumeCountdown()
				l.send(msg.ClientID, msg.Outbox, l.snapshot(l.currentKind(), nil, false))

			case Leave:
				delete(l.clients, msg.ClientID)
				l.pauseIfEmpty()

			case NewGame:
				res := l.startGame(msg.Mode)
				if msg.Reply != nil {
					msg.Reply <- res
				}

			case FromClient:
				res := l.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- res
				}

			case SetFilters:
				l.filters = Filters{Slot: msg.Slot, Search: msg.Search}
				l.version++
				l.broadcast(l.snapshot(l.currentKind(), nil, false))

			case ClearFilters:
				l.filters = Filters{}
				l.version++
				l.broadcast(l.snapshot(l.currentKind(), nil, true))

			case ListEligible:
				var out []engine.Candidate
				if l.state.Status != engine.StatusComplete {
					out = l.eng.Eligible(l.state, engine.Filter{Slot: msg.Slot, Search: msg.Search, Target: l.filters.Slot})
				}
				msg.Reply <- out

			case ResetHighScore:
				err := l.resetHighScore()
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case GetState:
				msg.Reply <- View{
					Version:          l.version,
					NumClients:       len(l.clients),
					State:            l.state,
					Filters:          l.filters,
					SecondsRemaining: l.remaining,
					HighScore:        l.highScore,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) startGame(mode engine.Mode) Result {
	l.stopCountdown()

	var catalog *engine.Catalog
	if l.deps.Catalogs != nil {
		catalog = l.deps.Catalogs.Catalog()
	}
	if catalog == nil {
		catalog = engine.NewCatalog(nil)
	}
	opts := []engine.Option{
		engine.WithLogger(l.log),
		engine.WithRotationAttempts(l.deps.RotationAttempts),
	}
	if l.deps.Rand != nil {
		opts = append(opts, engine.WithRand(l.deps.Rand))
	}
	l.eng = engine.New(catalog, opts...)

	events, state := l.eng.NewGame(mode)
	l.state = state
	l.filters = Filters{}
	l.highScore = l.loadHighScore(state.Mode)
	l.newHighScore = false
	l.version++

	l.startCountdown()
	l.broadcast(l.snapshot(KindStateChanged, events, true))

	l.log.Info("game started",
		zap.String("mode", string(state.Mode)),
		zap.String("team", state.ActiveTeam),
		zap.Int("players", catalog.Len()))
	return Result{Version: l.version, State: l.state, Events: events}
}

func (l *Lobby) apply(cmd engine.Command) Result {
	if cmd.Type != engine.CmdCommitPick {
		return Result{Version: l.version, State: l.state, Err: engine.ErrUnsupportedCommand}
	}
	if cmd.Slot == "" {
		cmd.Slot = l.filters.Slot
	}

	events, next, err := l.eng.Apply(l.state, cmd)
	if err != nil {
		l.log.Debug("pick rejected",
			zap.String("player", cmd.PlayerID),
			zap.String("code", engine.Code(err)))
		return Result{Version: l.version, State: l.state, Err: err}
	}

	l.stopCountdown()
	l.commitState(next, events)
	return Result{Version: l.version, State: l.state, Events: events}
}

func (l *Lobby) tick() {
	l.remaining--
	if l.remaining > 0 {
		l.broadcast(l.snapshot(KindTick, nil, false))
		return
	}

	l.stopCountdown()
	events, next, err := l.eng.Apply(l.state, engine.Command{Type: engine.CmdTimeoutAdvance, Slot: l.filters.Slot})
	if err != nil {
		l.log.Error("timeout advance failed", zap.Error(err))
		return
	}
	l.commitState(next, events)
}

// commitState installs a state produced by the engine and tells observers.
func (l *Lobby) commitState(next engine.State, events []engine.Event) {
	l.state = next
	l.version++

	reset := engine.ContainsEvent(events, engine.EvtFiltersReset) || engine.ContainsEvent(events, engine.EvtTimerExpired)
	if reset {
		l.filters = Filters{}
	}

	if next.Status == engine.StatusComplete {
		l.stopCountdown()
		l.remaining = 0
		l.recordHighScore()
		l.broadcast(l.snapshot(KindGameComplete, events, reset))
		return
	}

	l.startCountdown()
	l.broadcast(l.snapshot(KindStateChanged, events, reset))
}

// startCountdown resets the pick clock. It only runs while someone is
// watching; with no clients it waits for the next Join.
func (l *Lobby) startCountdown() {
	l.stopCountdown()
	if l.state.Status == engine.StatusComplete {
		return
	}
	l.remaining = int(l.deps.PickTime / time.Second)
	l.resumeCountdown()
}

func (l *Lobby) resumeCountdown() {
	if l.tickC != nil || len(l.clients) == 0 || l.state.Status == engine.StatusComplete {
		return
	}
	if l.remaining <= 0 {
		l.remaining = int(l.deps.PickTime / time.Second)
	}
	l.ticker = l.deps.Clock.NewTicker(time.Second)
	l.tickC = l.ticker.Chan()
}

// pauseIfEmpty freezes the countdown once the last client is gone and starts
// the idle clock.
func (l *Lobby) pauseIfEmpty() {
	if len(l.clients) > 0 {
		return
	}
	l.stopCountdown()
	l.armIdle()
}

// stopCountdown is synchronous: once it returns the loop never selects on the
// old ticker again, even if a tick was already buffered.
func (l *Lobby) stopCountdown() {
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
	l.tickC = nil
}

func (l *Lobby) armIdle() {
	if l.idle == nil {
		l.idle = l.deps.Clock.NewTimer(l.deps.IdleTimeout)
	} else {
		l.disarmIdle()
		l.idle.Reset(l.deps.IdleTimeout)
	}
	l.idleC = l.idle.Chan()
}

func (l *Lobby) disarmIdle() {
	if l.idle != nil && !l.idle.Stop() {
		select {
		case <-l.idle.Chan():
		default:
		}
	}
	l.idleC = nil
}

func (l *Lobby) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(l.ctx, 5*time.Second)
}

func (l *Lobby) loadHighScore(mode engine.Mode) float64 {
	ctx, cancel := l.storeCtx()
	defer cancel()
	best, err := l.deps.Scores.Get(ctx, mode)
	if err != nil {
		l.log.Warn("high score read failed", zap.String("mode", string(mode)), zap.Error(err))
		return 0
	}
	return best
}

func (l *Lobby) recordHighScore() {
	if l.state.Outcome == nil {
		return
	}
	ctx, cancel := l.storeCtx()
	defer cancel()

	best, improved, err := l.deps.Scores.Record(ctx, l.state.Mode, l.state.Outcome.Best)
	if err != nil {
		l.log.Error("high score write failed", zap.String("mode", string(l.state.Mode)), zap.Error(err))
		return
	}
	l.highScore = best
	l.newHighScore = improved
	l.log.Info("game completed",
		zap.String("mode", string(l.state.Mode)),
		zap.Float64s("scores", l.state.Outcome.Scores),
		zap.String("winner", string(l.state.Outcome.Winner)),
		zap.Float64("high_score", best),
		zap.Bool("new_high_score", improved))
}

func (l *Lobby) resetHighScore() error {
	ctx, cancel := l.storeCtx()
	defer cancel()
	if err := l.deps.Scores.Reset(ctx, l.state.Mode); err != nil {
		l.log.Error("high score reset failed", zap.Error(err))
		return err
	}
	l.highScore = 0
	l.newHighScore = false
	l.version++
	l.broadcast(l.snapshot(l.currentKind(), nil, false))
	return nil
}

func (l *Lobby) currentKind() Kind {
	if l.state.Status == engine.StatusComplete {
		return KindGameComplete
	}
	return KindStateChanged
}

func (l *Lobby) snapshot(kind Kind, events []engine.Event, filtersReset bool) Snapshot {
	round := l.state.Round()
	if round > engine.SlotCount {
		round = engine.SlotCount
	}
	return Snapshot{
		Version:          l.version,
		Kind:             kind,
		State:            l.state,
		OnClock:          l.state.OnClock(),
		Round:            round,
		SecondsRemaining: l.remaining,
		Filters:          l.filters,
		FiltersReset:     filtersReset,
		HighScore:        l.highScore,
		NewHighScore:     l.newHighScore,
		Events:           events,
	}
}

func (l *Lobby) shutdown() {
	l.stopCountdown()
	l.disarmIdle()
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		l.send(id, ch, snap)
	}
}

func (l *Lobby) send(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
		// Client is slow/full - drop them.
		close(ch)
		delete(l.clients, id)
		l.log.Debug("dropped slow client", zap.String("client", id))
		l.pauseIfEmpty()
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.code }

// Done is closed once the lobby has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Send delivers m unless the lobby has already shut down.
func (l *Lobby) Send(m Msg) error {
	if l.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrClosed
	}
}

// Ask sends the message built around a fresh reply channel and waits for the
// answer.
func Ask[T any](ctx context.Context, l *Lobby, build func(reply chan T) Msg) (T, error) {
	var zero T
	reply := make(chan T, 1)
	if err := l.Send(build(reply)); err != nil {
		return zero, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
