package nhlstats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/dataset"
	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Source is where season summaries come from; *Client in production.
type Source interface {
	Skaters(ctx context.Context, season string) ([]Row, error)
	Goalies(ctx context.Context, season string) ([]Row, error)
}

// Record is one player as written to players.json.
type Record struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Pos         string  `json:"pos"`
	Team        string  `json:"team"`
	DraftPoints float64 `json:"draftPoints"`
	BestSeason  string  `json:"bestSeason"`
}

type Output struct {
	Meta    dataset.Meta `json:"meta"`
	Players []Record     `json:"players"`
}

// teamRenames maps franchise codes that moved to their current code.
var teamRenames = map[string]string{
	"ARI": "UTA",
}

type Builder struct {
	Source  Source
	Scoring Scoring
	Now     func() time.Time
	Log     *zap.Logger
}

// Build fetches every season and keeps one record per player id; a later
// season overwrites an earlier one.
func (b *Builder) Build(ctx context.Context, seasons []string) (*Output, error) {
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := b.Now
	if now == nil {
		now = time.Now
	}

	players := make(map[string]Record)
	skipped := 0
	for _, season := range seasons {
		var skaters, goalies []Row
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			skaters, err = b.Source.Skaters(gctx, season)
			return err
		})
		g.Go(func() error {
			var err error
			goalies, err = b.Source.Goalies(gctx, season)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("season %s: %w", season, err)
		}

		for _, r := range skaters {
			rec, ok := b.record(r, season, false)
			if !ok {
				skipped++
				continue
			}
			players[rec.ID] = rec
		}
		for _, r := range goalies {
			rec, ok := b.record(r, season, true)
			if !ok {
				skipped++
				continue
			}
			players[rec.ID] = rec
		}
	}

	out := make([]Record, 0, len(players))
	for _, rec := range players {
		out = append(out, rec)
	}
	sortRecords(out)

	log.Info("dataset built",
		zap.Strings("seasons", seasons),
		zap.Int("players", len(out)),
		zap.Int("skipped", skipped))

	return &Output{
		Meta: dataset.Meta{
			GeneratedAt: now().UTC().Format(time.RFC3339),
			Seasons:     seasons,
			Count:       len(out),
			Scoring:     b.Scoring.Name,
			Notes:       fmt.Sprintf("Regular season only. Paged at %d rows per request.", PageLimit),
		},
		Players: out,
	}, nil
}

func (b *Builder) record(r Row, season string, goalie bool) (Record, bool) {
	id := stringOf(pick(r, "playerId", "playerID", "id"))
	if id == "" {
		return Record{}, false
	}
	name := playerName(r, goalie)
	team := teamFromRow(r)
	if name == "" || team == "" {
		return Record{}, false
	}

	var pos engine.Position
	var pts float64
	if goalie {
		pos = engine.PosG
		pts = b.Scoring.GoaliePoints(r)
	} else {
		pos = skaterPosition(r)
		pts = b.Scoring.SkaterPoints(r, pos)
	}

	return Record{
		ID:          id,
		Name:        name,
		Pos:         string(pos),
		Team:        team,
		DraftPoints: math.Round(pts*10) / 10,
		BestSeason:  season,
	}, true
}

// sortRecords orders by points descending, then by name in English
// collation order, then by id.
func sortRecords(recs []Record) {
	col := collate.New(language.English)
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.DraftPoints != b.DraftPoints {
			return a.DraftPoints > b.DraftPoints
		}
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

func playerName(r Row, goalie bool) string {
	keys := []string{"skaterFullName", "playerFullName", "fullName", "playerName", "goalieFullName"}
	if goalie {
		keys = []string{"goalieFullName", "playerFullName", "fullName", "playerName", "skaterFullName"}
	}
	return strings.TrimSpace(stringOf(pick(r, keys...)))
}

// skaterPosition maps the report's position code; unknown codes count as C.
func skaterPosition(r Row) engine.Position {
	raw := strings.ToUpper(strings.TrimSpace(stringOf(pick(r, "positionCode", "position", "pos"))))
	if pos, ok := engine.ParsePosition(raw); ok && pos != engine.PosG {
		return pos
	}
	return engine.PosC
}

func teamFromRow(r Row) string {
	return MapTeam(pick(r, "teamAbbrev", "teamAbbrevs", "teamAbbreviation", "team", "teamCode"))
}

// MapTeam normalises a team value from the API: multi-team strings such as
// "SJS, COL" resolve to the last (most recent) club, and relocated
// franchises get their current code.
func MapTeam(v any) string {
	t := strings.ToUpper(strings.TrimSpace(teamString(v)))
	if t == "" {
		return ""
	}
	if strings.Contains(t, ",") {
		parts := strings.Split(t, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			if p := strings.TrimSpace(parts[i]); p != "" {
				t = p
				break
			}
		}
	}
	if renamed, ok := teamRenames[t]; ok {
		return renamed
	}
	return t
}

func teamString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, stringOf(p))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return stringOf(pick(Row(t), "abbrev", "abbreviation", "teamAbbrev", "teamAbbreviation"))
	default:
		return stringOf(t)
	}
}

func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) {
			return fmt.Sprintf("%.0f", t)
		}
		return fmt.Sprint(t)
	default:
		return fmt.Sprint(t)
	}
}

// WriteFile writes the output as indented JSON, creating parent directories.
func WriteFile(path string, out *Output) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
