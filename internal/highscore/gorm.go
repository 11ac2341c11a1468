package highscore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/nhl-pickem/internal/engine"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type highScoreRow struct {
	Key       string  `gorm:"column:score_key;primaryKey;size:64"`
	Value     float64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (highScoreRow) TableName() string { return "high_scores" }

type GormStore struct {
	db *gorm.DB
}

// OpenGormStore connects to postgres and migrates the high_scores table.
func OpenGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormStore(db)
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&highScoreRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate high_scores: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, mode engine.Mode) (float64, error) {
	var row highScoreRow
	err := s.db.WithContext(ctx).Where("score_key = ?", Key(mode)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Value, nil
}

func (s *GormStore) Record(ctx context.Context, mode engine.Mode, score float64) (float64, bool, error) {
	if score < 0 {
		return 0, false, ErrNegativeScore
	}

	var best float64
	var improved bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row highScoreRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("score_key = ?", Key(mode)).
			Take(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		best, improved = ratchet(row.Value, score)
		if !improved {
			return nil
		}

		row = highScoreRow{Key: Key(mode), Value: best}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "score_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      gorm.Expr("GREATEST(high_scores.value, EXCLUDED.value)"),
				"updated_at": gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).Create(&row).Error
	})
	if err != nil {
		return 0, false, err
	}
	return best, improved, nil
}

func (s *GormStore) Reset(ctx context.Context, mode engine.Mode) error {
	row := highScoreRow{Key: Key(mode), Value: 0}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "score_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
