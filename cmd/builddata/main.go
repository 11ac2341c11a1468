// Command builddata fetches league statistics and writes the player dataset
// the game server loads.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/DoyleJ11/nhl-pickem/internal/config"
	"github.com/DoyleJ11/nhl-pickem/internal/nhlstats"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "builddata:", err)
		os.Exit(1)
	}
}

func run() error {
	out := flag.String("out", "data/players.json", "output file")
	seasons := flag.String("seasons", "20242025", "comma separated season ids")
	scoringPath := flag.String("scoring", "", "optional YAML file with scoring weights")
	baseURL := flag.String("base-url", nhlstats.DefaultBaseURL, "stats API base URL")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log, err := config.Log{Level: level, Dev: true}.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	scoring := nhlstats.DefaultScoring()
	if *scoringPath != "" {
		scoring, err = nhlstats.LoadScoring(*scoringPath)
		if err != nil {
			return err
		}
	}

	var seasonIDs []string
	for _, s := range strings.Split(*seasons, ",") {
		if s = strings.TrimSpace(s); s != "" {
			seasonIDs = append(seasonIDs, s)
		}
	}
	if len(seasonIDs) == 0 {
		return fmt.Errorf("no seasons given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &nhlstats.Builder{
		Source:  nhlstats.NewClient(*baseURL, log),
		Scoring: scoring,
		Log:     log,
	}
	output, err := b.Build(ctx, seasonIDs)
	if err != nil {
		return err
	}
	if err := nhlstats.WriteFile(*out, output); err != nil {
		return err
	}

	log.Info("wrote player dataset", zap.String("path", *out), zap.Int("players", output.Meta.Count))
	return nil
}
