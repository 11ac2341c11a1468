package engine

import "strings"

type Slot string

const (
	SlotC    Slot = "C"
	SlotLW   Slot = "LW"
	SlotRW   Slot = "RW"
	SlotD    Slot = "D"
	SlotG    Slot = "G"
	SlotFlex Slot = "FLEX"
)

// SlotOrder is the canonical roster template. FLEX sits last, so a scan in
// this order always prefers an exact slot over FLEX.
var SlotOrder = [...]Slot{SlotC, SlotLW, SlotRW, SlotD, SlotD, SlotG, SlotFlex, SlotFlex}

const SlotCount = len(SlotOrder)

var slotAccepts = map[Slot][]Position{
	SlotC:    {PosC},
	SlotLW:   {PosLW},
	SlotRW:   {PosRW},
	SlotD:    {PosD},
	SlotG:    {PosG},
	SlotFlex: {PosC, PosLW, PosRW},
}

func ParseSlot(raw string) (Slot, bool) {
	s := Slot(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := slotAccepts[s]; !ok {
		return "", false
	}
	return s, true
}

func (s Slot) Accepts(pos Position) bool {
	for _, p := range slotAccepts[s] {
		if p == pos {
			return true
		}
	}
	return false
}

// IsEligible reports whether the slot's accepted positions intersect the player's.
func IsEligible(p *Player, slot Slot) bool {
	if p == nil {
		return false
	}
	for _, pos := range p.Positions {
		if slot.Accepts(pos) {
			return true
		}
	}
	return false
}

// Roster is one contestant's 8 slots. A slot is open while it is neither
// occupied nor skipped; neither condition is ever undone within a game.
type Roster struct {
	Slots   [SlotCount]*Player `json:"slots"`
	Skipped [SlotCount]bool    `json:"skipped"`
}

func (r *Roster) IsOpen(i int) bool {
	return r.Slots[i] == nil && !r.Skipped[i]
}

func (r *Roster) FirstOpen() (int, bool) {
	for i := range SlotOrder {
		if r.IsOpen(i) {
			return i, true
		}
	}
	return -1, false
}

func (r *Roster) FirstOpenSlotFor(p *Player) (int, bool) {
	for i, slot := range SlotOrder {
		if r.IsOpen(i) && IsEligible(p, slot) {
			return i, true
		}
	}
	return -1, false
}

func (r *Roster) FirstOpenSlotOfKind(slot Slot) (int, bool) {
	for i, s := range SlotOrder {
		if s == slot && r.IsOpen(i) {
			return i, true
		}
	}
	return -1, false
}

func (r *Roster) OpenSlots() []Slot {
	var open []Slot
	for i, slot := range SlotOrder {
		if r.IsOpen(i) {
			open = append(open, slot)
		}
	}
	return open
}

func (r *Roster) Filled() int {
	n := 0
	for _, p := range r.Slots {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Roster) Complete() bool {
	_, open := r.FirstOpen()
	return !open
}

func (r *Roster) Total() float64 {
	total := 0.0
	for _, p := range r.Slots {
		if p != nil {
			total += p.Value
		}
	}
	return total
}
