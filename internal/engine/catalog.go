package engine

import "sort"

// Catalog is the read-only player pool shared by every game started from it.
type Catalog struct {
	players []*Player
	byID    map[string]*Player
	byTeam  map[string][]*Player
	teams   []string
}

// NewCatalog indexes players by id and team. Order is reassigned from the
// slice position; a repeated id keeps its first record.
func NewCatalog(players []Player) *Catalog {
	c := &Catalog{
		byID:   make(map[string]*Player, len(players)),
		byTeam: make(map[string][]*Player),
	}
	for i := range players {
		p := players[i]
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		p.Order = len(c.players)
		ptr := &p
		c.players = append(c.players, ptr)
		c.byID[p.ID] = ptr
		if _, seen := c.byTeam[p.Team]; !seen {
			c.teams = append(c.teams, p.Team)
		}
		c.byTeam[p.Team] = append(c.byTeam[p.Team], ptr)
	}
	sort.Strings(c.teams)
	return c
}

func (c *Catalog) Player(id string) (*Player, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) TeamPlayers(team string) []*Player { return c.byTeam[team] }

// Teams returns a copy of the distinct team codes, sorted.
func (c *Catalog) Teams() []string {
	out := make([]string, len(c.teams))
	copy(out, c.teams)
	return out
}

func (c *Catalog) Len() int { return len(c.players) }
