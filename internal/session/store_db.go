package session

import (
	"bitwise74/unmask-api/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps sessions in the sessions table
type DBStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewDBStore(db *gorm.DB, ttl time.Duration) *DBStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &DBStore{db: db, ttl: ttl}
}

func (s *DBStore) Load(ctx context.Context, id string) (*Session, error) {
	var row model.Session

	err := s.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, time.Now().UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load session, %w", err)
	}

	return Unmarshal(row.ID, row.Data)
}

func (s *DBStore) Save(ctx context.Context, sess *Session) error {
	data, err := Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session, %w", err)
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
		}).
		Create(&model.Session{
			ID:        sess.ID,
			Data:      data,
			ExpiresAt: time.Now().UTC().Add(s.ttl),
		}).
		Error
	if err != nil {
		return fmt.Errorf("failed to save session, %w", err)
	}

	return nil
}

func (s *DBStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Session{}).
		Error
}

// Purge removes expired rows and returns how many were deleted
func (s *DBStore) Purge(ctx context.Context) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&model.Session{})

	return r.RowsAffected, r.Error
}
