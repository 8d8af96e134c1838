package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// historyCap bounds per-room search history.
const historyCap = 20

type identityRow struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex"`
	CreatedAt time.Time
}

func (identityRow) TableName() string { return "identity" }

type searchRow struct {
	ID        uint   `gorm:"primaryKey"`
	RoomID    string `gorm:"index"`
	Query     string
	CreatedAt time.Time
}

func (searchRow) TableName() string { return "search_history" }

// GormStore implements Store on a local sqlite database.
type GormStore struct {
	db *gorm.DB
}

// Open opens (and migrates) the sqlite store at path. Use ":memory:" for
// a throwaway store.
func Open(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	if err := db.AutoMigrate(&identityRow{}, &searchRow{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) LoadIdentity() (string, error) {
	var row identityRow
	result := s.db.First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return row.Token, nil
}

func (s *GormStore) SaveIdentity(token string) error {
	// Single-row table: wipe and insert.
	if err := s.db.Where("1 = 1").Delete(&identityRow{}).Error; err != nil {
		return err
	}
	return s.db.Create(&identityRow{Token: token}).Error
}

func (s *GormStore) SearchHistory(roomID string, limit int) ([]string, error) {
	if limit <= 0 || limit > historyCap {
		limit = historyCap
	}

	var rows []searchRow
	result := s.db.
		Where("room_id = ?", roomID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Query)
	}
	return out, nil
}

func (s *GormStore) RecordSearch(roomID, query string) error {
	if query == "" {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Repeat searches move to the top instead of duplicating.
		if err := tx.Where("room_id = ? AND query = ?", roomID, query).
			Delete(&searchRow{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&searchRow{RoomID: roomID, Query: query}).Error; err != nil {
			return err
		}

		// Trim entries beyond the cap, oldest first.
		var stale []uint
		if err := tx.Model(&searchRow{}).
			Where("room_id = ?", roomID).
			Order("created_at DESC, id DESC").
			Offset(historyCap).
			Pluck("id", &stale).Error; err != nil {
			return err
		}
		if len(stale) > 0 {
			return tx.Delete(&searchRow{}, stale).Error
		}
		return nil
	})
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
