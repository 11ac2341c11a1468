package engine

import (
	"math/rand"

	"go.uber.org/zap"
)

// shuffleTeams returns a Fisher–Yates shuffled copy of teams.
func shuffleTeams(rng *rand.Rand, teams []string) []string {
	out := make([]string, len(teams))
	copy(out, teams)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// rotate pops teams off the queue until one fits every seat about to pick.
// After rotationAttempts misses it settles for a random team so a bad
// dataset can never stall the draft.
func (e *Engine) rotate(s *State, seats []Seat) []Event {
	teams := e.catalog.Teams()
	if len(teams) == 0 {
		s.ActiveTeam = ""
		return nil
	}

	for attempt := 0; attempt < e.rotationAttempts; attempt++ {
		if len(s.TeamQueue) == 0 {
			s.TeamQueue = shuffleTeams(e.rng, teams)
		}
		team := s.TeamQueue[0]
		s.TeamQueue = s.TeamQueue[1:]

		if e.teamFits(s, team, seats) {
			s.ActiveTeam = team
			return []Event{{Type: EvtTeamRotated, Team: team}}
		}
	}

	team := teams[e.rng.Intn(len(teams))]
	s.ActiveTeam = team
	s.RotationFallbacks++
	e.log.Warn("team rotation exhausted, using random team",
		zap.Int("attempts", e.rotationAttempts),
		zap.String("team", team),
		zap.Int("pick", s.Pick))

	return []Event{
		{Type: EvtRotationExhausted, Team: team},
		{Type: EvtTeamRotated, Team: team},
	}
}

// teamFits requires an undrafted candidate for an open slot of every seat,
// and at least one distinct candidate per seat so two seats sharing a team
// in a round are not both counting on the same player.
func (e *Engine) teamFits(s *State, team string, seats []Seat) bool {
	candidates := map[string]bool{}
	for _, seat := range seats {
		r := s.Rosters[seat.index()]
		found := false
		for _, p := range e.catalog.TeamPlayers(team) {
			if s.Drafted[p.ID] {
				continue
			}
			if _, ok := r.FirstOpenSlotFor(p); ok {
				found = true
				candidates[p.ID] = true
			}
		}
		if !found {
			return false
		}
	}
	return len(candidates) >= len(seats)
}
