// Package dataset turns the player JSON written by the stats builder (or
// hand-made variants of it) into engine players.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
)

// ErrDataLoad marks a dataset that could not be read or decoded at all.
var ErrDataLoad = errors.New("player data load failed")

var (
	idKeys     = []string{"id", "playerId", "playerID", "ID", "key"}
	nameKeys   = []string{"name", "fullName", "player", "Player"}
	teamKeys   = []string{"team", "teamAbbrev", "nhlTeam", "Team"}
	posKeys    = []string{"pos", "position", "Position", "positions"}
	pointsKeys = []string{"draftPoints", "fantasyPoints", "points", "Points"}
)

type Meta struct {
	GeneratedAt string   `json:"generatedAt,omitempty"`
	Seasons     []string `json:"seasons,omitempty"`
	Count       int      `json:"count,omitempty"`
	Scoring     string   `json:"scoring,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Dataset is the decoded document. Dropped counts records that were skipped
// for a missing name, team, or usable position.
type Dataset struct {
	Meta    Meta
	Players []engine.Player
	Dropped int
}

type document struct {
	Meta    Meta                         `json:"meta"`
	Players []map[string]json.RawMessage `json:"players"`
}

// Parse accepts either a bare array of records or an object with a players array.
func Parse(r io.Reader) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrDataLoad, err)
	}

	var doc document
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(raw, &doc.Players); err != nil {
			return nil, fmt.Errorf("%w: decode array: %v", ErrDataLoad, err)
		}
	case strings.HasPrefix(trimmed, "{"):
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode object: %v", ErrDataLoad, err)
		}
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object", ErrDataLoad)
	}

	ds := &Dataset{Meta: doc.Meta}
	for _, rec := range doc.Players {
		p, ok := normalize(rec)
		if !ok {
			ds.Dropped++
			continue
		}
		ds.Players = append(ds.Players, p)
	}
	return ds, nil
}

func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func normalize(rec map[string]json.RawMessage) (engine.Player, bool) {
	name := stringField(rec, nameKeys)
	team := strings.ToUpper(stringField(rec, teamKeys))
	if name == "" || team == "" {
		return engine.Player{}, false
	}

	positions := ParsePositions(rawField(rec, posKeys))
	if len(positions) == 0 {
		return engine.Player{}, false
	}

	id := stringField(rec, idKeys)
	if id == "" {
		id = name + "|" + team
	}

	value := numberField(rec, pointsKeys)
	if value < 0 {
		value = 0
	}

	return engine.Player{
		ID:        id,
		Name:      name,
		Team:      team,
		Positions: positions,
		Value:     value,
	}, true
}

func rawField(rec map[string]json.RawMessage, keys []string) json.RawMessage {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || string(v) == "null" || string(v) == `""` {
			continue
		}
		return v
	}
	return nil
}

// stringField reads a string, or a number rendered as a string (numeric ids).
func stringField(rec map[string]json.RawMessage, keys []string) string {
	v := rawField(rec, keys)
	if v == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func numberField(rec map[string]json.RawMessage, keys []string) float64 {
	v := rawField(rec, keys)
	if v == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

// ParsePositions accepts an array of codes or a slash/comma delimited string.
// Unknown codes are dropped and duplicates collapsed.
func ParsePositions(v json.RawMessage) []engine.Position {
	if v == nil {
		return nil
	}

	var parts []string
	var list []string
	var single string
	switch {
	case json.Unmarshal(v, &list) == nil:
		parts = list
	case json.Unmarshal(v, &single) == nil:
		parts = strings.FieldsFunc(single, func(r rune) bool { return r == '/' || r == ',' })
	default:
		return nil
	}

	var out []engine.Position
	seen := map[engine.Position]bool{}
	for _, part := range parts {
		pos, ok := engine.ParsePosition(part)
		if !ok || seen[pos] {
			continue
		}
		seen[pos] = true
		out = append(out, pos)
	}
	return out
}
