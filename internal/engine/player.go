package engine

import (
	"slices"
	"strings"
)

type Position string

const (
	PosC  Position = "C"
	PosLW Position = "LW"
	PosRW Position = "RW"
	PosD  Position = "D"
	PosG  Position = "G"
)

// ParsePosition maps a raw position code onto a Position. Single-letter wing
// codes and handed defense codes are folded into the roster positions.
func ParsePosition(raw string) (Position, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "C":
		return PosC, true
	case "LW", "L":
		return PosLW, true
	case "RW", "R":
		return PosRW, true
	case "D", "LD", "RD":
		return PosD, true
	case "G":
		return PosG, true
	default:
		return "", false
	}
}

// Player is immutable once loaded. Order is the index in the source data and
// is the final tie-break wherever players are ranked.
type Player struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Team      string     `json:"team"`
	Positions []Position `json:"positions"`
	Value     float64    `json:"value"`
	Order     int        `json:"-"`
}

func (p *Player) HasPosition(pos Position) bool {
	return slices.Contains(p.Positions, pos)
}

// PositionLabel renders the positions the way the draft board shows them, e.g. "C/LW".
func (p *Player) PositionLabel() string {
	parts := make([]string, len(p.Positions))
	for i, pos := range p.Positions {
		parts[i] = string(pos)
	}
	return strings.Join(parts, "/")
}
