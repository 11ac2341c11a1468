package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server Server
	Data   Data
	Game   Game
	Scores Scores
	Log    Log
}

type Server struct {
	Addr           string   `envconfig:"PICKEM_ADDR" default:":8080"`
	AllowedOrigins []string `envconfig:"PICKEM_ALLOWED_ORIGINS" default:"*"`
}

type Data struct {
	PlayersPath    string        `envconfig:"PICKEM_PLAYERS_PATH" default:"data/players.json"`
	ReloadInterval time.Duration `envconfig:"PICKEM_RELOAD_INTERVAL" default:"1h"`
}

type Game struct {
	PickSeconds      int           `envconfig:"PICKEM_PICK_SECONDS" default:"30"`
	RotationAttempts int           `envconfig:"PICKEM_ROTATION_ATTEMPTS" default:"300"`
	LobbyIdle        time.Duration `envconfig:"PICKEM_LOBBY_IDLE" default:"10m"`
}

type Scores struct {
	Store       string `envconfig:"PICKEM_SCORE_STORE" default:"file"`
	File        string `envconfig:"PICKEM_SCORE_FILE" default:"data/highscores.json"`
	DatabaseURL string `envconfig:"PICKEM_DATABASE_URL"`
}

type Log struct {
	Level string `envconfig:"PICKEM_LOG_LEVEL" default:"info"`
	Dev   bool   `envconfig:"PICKEM_LOG_DEV" default:"false"`
}

func New() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Game.PickSeconds <= 0 {
		return fmt.Errorf("PICKEM_PICK_SECONDS must be positive, got %d", c.Game.PickSeconds)
	}
	if c.Game.LobbyIdle <= 0 {
		return fmt.Errorf("PICKEM_LOBBY_IDLE must be positive, got %s", c.Game.LobbyIdle)
	}
	if c.Game.RotationAttempts <= 0 {
		return fmt.Errorf("PICKEM_ROTATION_ATTEMPTS must be positive, got %d", c.Game.RotationAttempts)
	}
	switch c.Scores.Store {
	case "memory", "file":
	case "postgres":
		if c.Scores.DatabaseURL == "" {
			return fmt.Errorf("PICKEM_SCORE_STORE=postgres requires PICKEM_DATABASE_URL")
		}
	default:
		return fmt.Errorf("PICKEM_SCORE_STORE must be memory, file or postgres, got %q", c.Scores.Store)
	}
	return nil
}

func (c Game) PickDuration() time.Duration {
	return time.Duration(c.PickSeconds) * time.Second
}

// Logger builds the process logger: production JSON output unless Dev is set.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid PICKEM_LOG_LEVEL: %w", err)
	}

	zc := zap.NewProductionConfig()
	if l.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
