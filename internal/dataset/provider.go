package dataset

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Provider serves the current catalog and can swap in a fresh one from disk
// on a schedule. Games already running keep the catalog they started with.
type Provider struct {
	path    string
	log     *zap.Logger
	current atomic.Pointer[engine.Catalog]
	meta    atomic.Pointer[Meta]
	sched   gocron.Scheduler
}

// NewProvider performs the initial load; failing it is fatal to startup.
func NewProvider(path string, log *zap.Logger) (*Provider, error) {
	p := &Provider{path: path, log: log}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewStaticProvider wraps an in-memory player list.
func NewStaticProvider(players []engine.Player) *Provider {
	p := &Provider{log: zap.NewNop()}
	p.current.Store(engine.NewCatalog(players))
	p.meta.Store(&Meta{Count: len(players)})
	return p
}

func (p *Provider) Catalog() *engine.Catalog { return p.current.Load() }

func (p *Provider) Meta() Meta {
	if m := p.meta.Load(); m != nil {
		return *m
	}
	return Meta{}
}

// Reload replaces the catalog. On failure the previous catalog stays live.
func (p *Provider) Reload() error {
	ds, err := Load(p.path)
	if err != nil {
		p.log.Error("player data reload failed", zap.String("path", p.path), zap.Error(err))
		return err
	}

	catalog := engine.NewCatalog(ds.Players)
	if catalog.Len() == 0 {
		p.log.Warn("player data has no usable players", zap.String("path", p.path), zap.Int("dropped", ds.Dropped))
	}
	p.current.Store(catalog)
	p.meta.Store(&ds.Meta)

	p.log.Info("player data loaded",
		zap.String("path", p.path),
		zap.Int("players", catalog.Len()),
		zap.Int("teams", len(catalog.Teams())),
		zap.Int("dropped", ds.Dropped),
		zap.String("generated_at", ds.Meta.GeneratedAt))
	return nil
}

// StartReloading schedules Reload every interval. A zero interval disables it.
func (p *Provider) StartReloading(interval time.Duration) error {
	if interval <= 0 || p.path == "" {
		return nil
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { _ = p.Reload() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create reload job: %w", err)
	}

	s.Start()
	p.sched = s
	p.log.Info("player data reload scheduled", zap.Duration("interval", interval))
	return nil
}

func (p *Provider) Stop() error {
	if p.sched == nil {
		return nil
	}
	return p.sched.Shutdown()
}
