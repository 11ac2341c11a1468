package engine

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// FindEvent returns the first event of the given type.
func FindEvent(events []Event, eventType EventType) (Event, bool) {
	for _, event := range events {
		if event.Type == eventType {
			return event, true
		}
	}
	return Event{}, false
}

// DraftedCount is the number of slots actually filled across all rosters.
func (s State) DraftedCount() int {
	n := 0
	for i := range s.Rosters {
		n += s.Rosters[i].Filled()
	}
	return n
}

// TotalPicks is the number of picks a game in this state's mode lasts.
func (s State) TotalPicks() int {
	return s.Mode.TotalPicks()
}
