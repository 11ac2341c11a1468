package nhlstats

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"gopkg.in/yaml.v3"
)

type SkaterWeights struct {
	Goals            float64 `yaml:"goals"`
	DefenseGoals     float64 `yaml:"defense_goals"`
	Assists          float64 `yaml:"assists"`
	DefenseAssists   float64 `yaml:"defense_assists"`
	PowerPlayGoals   float64 `yaml:"power_play_goals"`
	ShortHandedGoals float64 `yaml:"short_handed_goals"`
	PlusMinus        float64 `yaml:"plus_minus"`
	PenaltyMinutes   float64 `yaml:"penalty_minutes"`
}

type GoalieWeights struct {
	Wins           float64 `yaml:"wins"`
	Shutouts       float64 `yaml:"shutouts"`
	Saves          float64 `yaml:"saves"`
	GoalsAgainst   float64 `yaml:"goals_against"`
	Assists        float64 `yaml:"assists"`
	PenaltyMinutes float64 `yaml:"penalty_minutes"`
	Goals          float64 `yaml:"goals"`
}

type Scoring struct {
	Name   string        `yaml:"name"`
	Skater SkaterWeights `yaml:"skater"`
	Goalie GoalieWeights `yaml:"goalie"`
}

// DefaultScoring is the free CBS Sports NHL fantasy format.
func DefaultScoring() Scoring {
	return Scoring{
		Name: "CBS Sports NHL Fantasy (Free)",
		Skater: SkaterWeights{
			Goals:            3,
			DefenseGoals:     5,
			Assists:          2,
			DefenseAssists:   3,
			PowerPlayGoals:   1,
			ShortHandedGoals: 2,
			PlusMinus:        1,
			PenaltyMinutes:   0.25,
		},
		Goalie: GoalieWeights{
			Wins:           5,
			Shutouts:       3,
			Saves:          0.2,
			GoalsAgainst:   -1,
			Assists:        3,
			PenaltyMinutes: 0.25,
			Goals:          5,
		},
	}
}

// LoadScoring reads weights from a YAML file. Keys left out keep their
// default value.
func LoadScoring(path string) (Scoring, error) {
	s := DefaultScoring()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read scoring file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse scoring file: %w", err)
	}
	return s, nil
}

func (s Scoring) SkaterPoints(row Row, pos engine.Position) float64 {
	w := s.Skater
	goalPts, assistPts := w.Goals, w.Assists
	if pos == engine.PosD {
		goalPts, assistPts = w.DefenseGoals, w.DefenseAssists
	}

	return num(row, "goals", "g")*goalPts +
		num(row, "assists", "a")*assistPts +
		num(row, "powerPlayGoals", "ppGoals", "ppg")*w.PowerPlayGoals +
		num(row, "shortHandedGoals", "shGoals", "shg")*w.ShortHandedGoals +
		num(row, "plusMinus", "plusminus", "plus_minus")*w.PlusMinus +
		num(row, "penaltyMinutes", "pim")*w.PenaltyMinutes
}

func (s Scoring) GoaliePoints(row Row) float64 {
	w := s.Goalie
	return num(row, "wins", "w")*w.Wins +
		num(row, "shutouts", "so")*w.Shutouts +
		num(row, "saves", "s")*w.Saves +
		num(row, "goalsAgainst", "ga")*w.GoalsAgainst +
		num(row, "assists", "a")*w.Assists +
		num(row, "penaltyMinutes", "pim")*w.PenaltyMinutes +
		num(row, "goals", "g")*w.Goals
}

// pick returns the first key holding something other than null or "".
func pick(row Row, keys ...string) any {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v
	}
	return nil
}

func num(row Row, keys ...string) float64 {
	switch v := pick(row, keys...).(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}
