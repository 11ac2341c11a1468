package engine

import (
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

var ErrSlotFull = errors.New("slot full")
var ErrIneligible = errors.New("player not eligible for slot")
var ErrAlreadyDrafted = errors.New("player already drafted")
var ErrNoOpenSlot = errors.New("no open slot for player")
var ErrWrongTurn = errors.New("invalid turn")
var ErrNotActiveTeam = errors.New("player not on the active team")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrGameCompleted = errors.New("game already completed")

// Code returns the stable tag the UI shows for a rejected pick.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSlotFull):
		return "SLOT_FULL"
	case errors.Is(err, ErrIneligible):
		return "INELIGIBLE"
	case errors.Is(err, ErrAlreadyDrafted):
		return "ALREADY_DRAFTED"
	case errors.Is(err, ErrNoOpenSlot):
		return "NO_OPEN_SLOT"
	case errors.Is(err, ErrWrongTurn):
		return "WRONG_TURN"
	case errors.Is(err, ErrNotActiveTeam):
		return "NOT_ACTIVE_TEAM"
	case errors.Is(err, ErrUnknownPlayer):
		return "UNKNOWN_PLAYER"
	case errors.Is(err, ErrGameCompleted):
		return "GAME_COMPLETED"
	default:
		return "UNSUPPORTED"
	}
}

type Status string

const (
	StatusAwaitingPick Status = "awaiting_pick"
	StatusComplete     Status = "complete"
)

type Winner string

const (
	WinnerNone    Winner = ""
	WinnerPlayer1 Winner = "player1_wins"
	WinnerPlayer2 Winner = "player2_wins"
	WinnerTie     Winner = "tie"
)

type Outcome struct {
	Scores []float64 `json:"scores"`
	Winner Winner    `json:"winner,omitempty"`
	Best   float64   `json:"best"`
}

type State struct {
	Mode              Mode            `json:"mode"`
	Status            Status          `json:"status"`
	Pick              int             `json:"pick"`
	Rosters           []Roster        `json:"rosters"`
	Scores            []float64       `json:"scores"`
	Drafted           map[string]bool `json:"-"`
	ActiveTeam        string          `json:"active_team"`
	TeamQueue         []string        `json:"-"`
	RotationFallbacks int             `json:"rotation_fallbacks"`
	Outcome           *Outcome        `json:"outcome,omitempty"`
}

func (s State) OnClock() Seat {
	if s.Status == StatusComplete {
		return SeatNone
	}
	return OnClock(s.Mode, s.Pick)
}

func (s State) Round() int { return RoundOf(s.Mode, s.Pick) }

// Roster returns a copy of the seat's roster.
func (s State) Roster(seat Seat) Roster {
	return s.Rosters[seat.index()]
}

func (s State) clone() State {
	out := s
	out.Rosters = append([]Roster(nil), s.Rosters...)
	out.Scores = append([]float64(nil), s.Scores...)
	out.TeamQueue = append([]string(nil), s.TeamQueue...)
	out.Drafted = make(map[string]bool, len(s.Drafted)+1)
	for id := range s.Drafted {
		out.Drafted[id] = true
	}
	if s.Outcome != nil {
		o := *s.Outcome
		o.Scores = append([]float64(nil), s.Outcome.Scores...)
		out.Outcome = &o
	}
	return out
}

type CommandType string

const (
	CmdCommitPick     CommandType = "CommitPick"
	CmdTimeoutAdvance CommandType = "TimeoutAdvance"
)

/*
	CmdCommitPick     -> EvtPlayerDrafted -> EvtFiltersReset -> EvtTurnAdvanced -> EvtTeamRotated | EvtGameCompleted
	CmdTimeoutAdvance -> EvtTimerExpired -> (EvtPlayerDrafted -> EvtFiltersReset | EvtPickSkipped) -> EvtTurnAdvanced -> ...
*/

// Command is a request against the seat on the clock. Seat may be left empty
// when the caller does not care who is picking (hot-seat clients); Slot is the
// pre-selected target, empty for auto-assignment.
type Command struct {
	Type     CommandType
	Seat     Seat
	PlayerID string
	Slot     Slot
}

type EventType string

const (
	EvtPlayerDrafted     EventType = "PlayerDrafted"
	EvtPickSkipped       EventType = "PickSkipped"
	EvtTurnAdvanced      EventType = "TurnAdvanced"
	EvtTeamRotated       EventType = "TeamRotated"
	EvtRotationExhausted EventType = "RotationExhausted"
	EvtFiltersReset      EventType = "FiltersReset"
	EvtTimerExpired      EventType = "TimerExpired"
	EvtGameCompleted     EventType = "GameCompleted"
)

type Event struct {
	Type      EventType
	Seat      Seat
	PlayerID  string
	Slot      Slot
	SlotIndex int
	Team      string
	Value     float64
}

type Engine struct {
	catalog          *Catalog
	rng              *rand.Rand
	log              *zap.Logger
	rotationAttempts int
}

type Option func(*Engine)

func WithRand(rng *rand.Rand) Option { return func(e *Engine) { e.rng = rng } }

func WithLogger(log *zap.Logger) Option { return func(e *Engine) { e.log = log } }

func WithRotationAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rotationAttempts = n
		}
	}
}

const DefaultRotationAttempts = 300

// New builds an engine over a catalog. An Engine owns its RNG and must only be
// used from one goroutine.
func New(catalog *Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:          catalog,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		log:              zap.NewNop(),
		rotationAttempts: DefaultRotationAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

// NewGame returns a fresh state with the first team already chosen.
func (e *Engine) NewGame(mode Mode) ([]Event, State) {
	if mode != ModeVersus {
		mode = ModeSingle
	}
	s := State{
		Mode:    mode,
		Status:  StatusAwaitingPick,
		Rosters: make([]Roster, mode.Contestants()),
		Scores:  make([]float64, mode.Contestants()),
		Drafted: map[string]bool{},
	}
	s.TeamQueue = shuffleTeams(e.rng, e.catalog.Teams())
	events := e.rotate(&s, seatsInRound(mode, 0))
	return events, s
}

func (e *Engine) Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Status == StatusComplete || s.Pick >= s.Mode.TotalPicks() {
		return nil, s, ErrGameCompleted
	}

	seat := s.OnClock()
	if cmd.Seat != SeatNone && cmd.Seat != seat {
		return nil, s, ErrWrongTurn
	}

	switch cmd.Type {
	case CmdCommitPick:
		p, ok := e.catalog.Player(cmd.PlayerID)
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		idx, err := placement(s, seat, p, cmd.Slot)
		if err != nil {
			return nil, s, err
		}

		newState := s.clone()
		events := commit(&newState, seat, p, idx)
		events = append(events, e.advance(&newState)...)
		return events, newState, nil

	case CmdTimeoutAdvance:
		events := []Event{{Type: EvtTimerExpired, Seat: seat}}
		newState := s.clone()

		p, idx, ok := e.AutoPick(s, seat, cmd.Slot)
		if ok {
			events = append(events, commit(&newState, seat, p, idx)...)
		} else if idx >= 0 {
			// Nobody on the active team fits: the slot stays empty for good.
			newState.Rosters[seat.index()].Skipped[idx] = true
			events = append(events, Event{Type: EvtPickSkipped, Seat: seat, Slot: SlotOrder[idx], SlotIndex: idx, Team: s.ActiveTeam})
			e.log.Info("pick skipped on timeout",
				zap.String("seat", seat.String()),
				zap.String("slot", string(SlotOrder[idx])),
				zap.String("team", s.ActiveTeam))
		}
		events = append(events, e.advance(&newState)...)
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// placement validates a manual pick and returns the roster index it fills.
func placement(s State, seat Seat, p *Player, slot Slot) (int, error) {
	if s.Drafted[p.ID] {
		return -1, ErrAlreadyDrafted
	}
	if p.Team != s.ActiveTeam {
		return -1, ErrNotActiveTeam
	}

	r := s.Rosters[seat.index()]
	if slot != "" {
		idx, ok := r.FirstOpenSlotOfKind(slot)
		if !ok {
			return -1, ErrSlotFull
		}
		if !IsEligible(p, slot) {
			return -1, ErrIneligible
		}
		return idx, nil
	}

	idx, ok := r.FirstOpenSlotFor(p)
	if !ok {
		return -1, ErrNoOpenSlot
	}
	return idx, nil
}

func commit(s *State, seat Seat, p *Player, idx int) []Event {
	s.Rosters[seat.index()].Slots[idx] = p
	s.Drafted[p.ID] = true
	s.Scores[seat.index()] += p.Value

	return []Event{
		{Type: EvtPlayerDrafted, Seat: seat, PlayerID: p.ID, Slot: SlotOrder[idx], SlotIndex: idx, Team: p.Team, Value: p.Value},
		{Type: EvtFiltersReset},
	}
}

func (e *Engine) advance(s *State) []Event {
	s.Pick++
	events := []Event{{Type: EvtTurnAdvanced, Seat: s.OnClock()}}

	if s.Pick >= s.Mode.TotalPicks() {
		s.Status = StatusComplete
		s.Outcome = outcome(s.Mode, s.Scores)
		return append(events, Event{Type: EvtGameCompleted, Value: s.Outcome.Best})
	}

	if startsRound(s.Mode, s.Pick) {
		events = append(events, e.rotate(s, seatsInRound(s.Mode, s.Pick))...)
	}
	return events
}

func outcome(mode Mode, scores []float64) *Outcome {
	o := &Outcome{Scores: append([]float64(nil), scores...)}
	for _, sc := range scores {
		if sc > o.Best {
			o.Best = sc
		}
	}
	if mode == ModeVersus {
		switch {
		case scores[0] > scores[1]:
			o.Winner = WinnerPlayer1
		case scores[1] > scores[0]:
			o.Winner = WinnerPlayer2
		default:
			o.Winner = WinnerTie
		}
	}
	return o
}
