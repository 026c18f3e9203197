package service

import (
	"bitwise74/unmask-api/internal/model"
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionPurger is implemented by session stores that don't expire entries
// on their own
type SessionPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// Cleanup removes state that can never be used again: expired codes, expired
// sessions and old guest uploads
type Cleanup struct {
	DB       *gorm.DB
	Files    FileStore
	Sessions SessionPurger
	// Guest uploads older than this are deleted. Zero keeps them forever
	GuestRetention time.Duration

	now func() time.Time
}

func (c *Cleanup) clock() time.Time {
	if c.now != nil {
		return c.now()
	}

	return time.Now()
}

// Schedule registers the cleanup jobs on a new cron scheduler and starts it
func (c *Cleanup) Schedule(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = "@hourly"
	}

	cr := cron.New()

	if _, err := cr.AddFunc(schedule, func() { c.Run(context.Background()) }); err != nil {
		return nil, err
	}

	zap.L().Debug("Cleanup attached", zap.String("schedule", schedule))
	cr.Start()

	return cr, nil
}

// Run executes every cleanup job once
func (c *Cleanup) Run(ctx context.Context) {
	if n, err := c.ExpiredCodes(ctx); err != nil {
		zap.L().Error("Failed to clear expired codes", zap.Error(err))
	} else if n > 0 {
		zap.L().Debug("Cleared expired codes", zap.Int64("count", n))
	}

	if c.Sessions != nil {
		if n, err := c.Sessions.Purge(ctx); err != nil {
			zap.L().Error("Failed to purge expired sessions", zap.Error(err))
		} else if n > 0 {
			zap.L().Debug("Purged expired sessions", zap.Int64("count", n))
		}
	}

	if n, err := c.GuestUploads(ctx); err != nil {
		zap.L().Error("Failed to delete old guest uploads", zap.Error(err))
	} else if n > 0 {
		zap.L().Debug("Deleted old guest uploads", zap.Int("count", n))
	}
}

// ExpiredCodes nulls every verification code past its expiry
func (c *Cleanup) ExpiredCodes(ctx context.Context) (int64, error) {
	res := c.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("verification_code_expires < ?", c.clock().UTC()).
		Updates(map[string]any{
			"verification_code":         nil,
			"verification_code_expires": nil,
			"verification_purpose":      "",
			"verification_target":       "",
		})

	return res.RowsAffected, res.Error
}

// GuestUploads deletes guest uploads older than GuestRetention together with
// their stored images
func (c *Cleanup) GuestUploads(ctx context.Context) (int, error) {
	if c.GuestRetention <= 0 {
		return 0, nil
	}

	var old []model.Upload
	err := c.DB.WithContext(ctx).
		Where("guest_session_id IS NOT NULL AND created_at < ?", c.clock().UTC().Add(-c.GuestRetention)).
		Select("id", "filename").
		Find(&old).
		Error
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, u := range old {
		if err := c.Files.Delete(ctx, u.Filename); err != nil {
			zap.L().Error("Failed to delete stored image", zap.String("name", u.Filename), zap.Error(err))
			continue
		}

		if err := c.DB.WithContext(ctx).Delete(&model.Upload{}, u.ID).Error; err != nil {
			return deleted, err
		}

		deleted++
	}

	return deleted, nil
}
