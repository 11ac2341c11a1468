package engine

import "sort"

// Candidates lists the undrafted active-team players eligible for slot,
// best value first with data order breaking ties.
func (e *Engine) Candidates(s State, slot Slot) []*Player {
	var out []*Player
	for _, p := range e.catalog.TeamPlayers(s.ActiveTeam) {
		if s.Drafted[p.ID] || !IsEligible(p, slot) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Order < out[j].Order
	})
	return out
}

// AutoPick chooses the timeout pick for seat. The target slot is used when
// it still has an opening, otherwise the first open slot. idx is the chosen
// roster index even when ok is false, so the caller can mark it skipped; it
// is -1 only when the roster has no open slot at all.
func (e *Engine) AutoPick(s State, seat Seat, target Slot) (p *Player, idx int, ok bool) {
	r := s.Rosters[seat.index()]

	idx = -1
	if target != "" {
		if i, open := r.FirstOpenSlotOfKind(target); open {
			idx = i
		}
	}
	if idx < 0 {
		i, open := r.FirstOpen()
		if !open {
			return nil, -1, false
		}
		idx = i
	}

	candidates := e.Candidates(s, SlotOrder[idx])
	if len(candidates) == 0 {
		return nil, idx, false
	}
	return candidates[0], idx, true
}
