package engine

import "strings"

type Mode string

const (
	ModeSingle Mode = "single"
	ModeVersus Mode = "versus"
)

func ParseMode(raw string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "single", "solo":
		return ModeSingle, true
	case "versus", "vs":
		return ModeVersus, true
	default:
		return "", false
	}
}

func (m Mode) Contestants() int {
	if m == ModeVersus {
		return 2
	}
	return 1
}

func (m Mode) TotalPicks() int {
	return SlotCount * m.Contestants()
}

type Seat int

const (
	SeatNone    Seat = 0
	SeatPlayer1 Seat = 1
	SeatPlayer2 Seat = 2
)

func (s Seat) index() int { return int(s) - 1 }

func (s Seat) String() string {
	switch s {
	case SeatPlayer1:
		return "player1"
	case SeatPlayer2:
		return "player2"
	default:
		return "none"
	}
}

// snakeOrder is indexed by round parity then pick-in-round.
var snakeOrder = [2][2]Seat{
	{SeatPlayer1, SeatPlayer2},
	{SeatPlayer2, SeatPlayer1},
}

// OnClock returns the seat that owns the zero-based pick, or SeatNone once
// the draft is over.
func OnClock(mode Mode, pick int) Seat {
	if pick < 0 || pick >= mode.TotalPicks() {
		return SeatNone
	}
	if mode != ModeVersus {
		return SeatPlayer1
	}
	round := pick / 2
	return snakeOrder[round%2][pick%2]
}

// RoundOf is the 1-based display round for a zero-based pick.
func RoundOf(mode Mode, pick int) int {
	n := mode.Contestants()
	return (pick + n) / n
}

func startsRound(mode Mode, pick int) bool {
	return pick%mode.Contestants() == 0
}

// seatsInRound lists the seats that pick in the round starting at pick, in order.
func seatsInRound(mode Mode, pick int) []Seat {
	seats := make([]Seat, 0, mode.Contestants())
	for i := 0; i < mode.Contestants(); i++ {
		if seat := OnClock(mode, pick+i); seat != SeatNone {
			seats = append(seats, seat)
		}
	}
	return seats
}
