package engine

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Candidate struct {
	Player    *Player `json:"player"`
	Draftable bool    `json:"draftable"`
}

// Filter narrows the pool shown to the seat on the clock. Slot filters the
// list; Target is where a draft would land, and decides Draftable.
type Filter struct {
	Slot   Slot
	Search string
	Target Slot
}

// Eligible lists the active team's undrafted players matching the filter,
// sorted by name.
func (e *Engine) Eligible(s State, f Filter) []Candidate {
	seat := s.OnClock()
	query := strings.TrimSpace(f.Search)

	var out []Candidate
	for _, p := range e.catalog.TeamPlayers(s.ActiveTeam) {
		if s.Drafted[p.ID] {
			continue
		}
		if f.Slot != "" && !IsEligible(p, f.Slot) {
			continue
		}
		if query != "" && !matchesSearch(p, query) {
			continue
		}
		c := Candidate{Player: p}
		if seat != SeatNone {
			r := s.Rosters[seat.index()]
			c.Draftable = canDraft(&r, p, f.Target)
		}
		out = append(out, c)
	}

	sortByName(out)
	return out
}

// sortByName uses English collation so accented names sit with their base
// letters, then data order.
func sortByName(out []Candidate) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if c := col.CompareString(out[i].Player.Name, out[j].Player.Name); c != 0 {
			return c < 0
		}
		return out[i].Player.Order < out[j].Player.Order
	})
}

func canDraft(r *Roster, p *Player, target Slot) bool {
	if target != "" {
		if _, ok := r.FirstOpenSlotOfKind(target); !ok {
			return false
		}
		return IsEligible(p, target)
	}
	_, ok := r.FirstOpenSlotFor(p)
	return ok
}

// matchesSearch folds case and accents on the name ("stutzle" finds
// "Stützle") and falls back to a substring match on the position label.
func matchesSearch(p *Player, query string) bool {
	if fuzzy.MatchNormalizedFold(query, p.Name) {
		return true
	}
	return strings.Contains(strings.ToLower(p.PositionLabel()), strings.ToLower(query))
}
