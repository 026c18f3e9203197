package service

import (
	"bitwise74/unmask-api/internal/model"
	"bitwise74/unmask-api/internal/quota"
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/util"
	"bitwise74/unmask-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DetectError carries the status a failed detection should be answered with
type DetectError struct {
	Status int
	Err    error
}

func (e *DetectError) Error() string { return e.Err.Error() }
func (e *DetectError) Unwrap() error { return e.Err }

type Detector struct {
	DB      *gorm.DB
	Files   FileStore
	Queue   *ClassifyQueue
	Quota   *quota.Tracker
	MaxSize int64
	Allowed []string
}

// Detect validates and stores an uploaded image, classifies it and records
// the result for the owner of s. Guest sessions are charged one unit of
// quota, but only when everything succeeded
func (d *Detector) Detect(ctx context.Context, s *session.Session, fh *multipart.FileHeader) (*model.Upload, error) {
	if err := d.Quota.Check(s); err != nil {
		return nil, &DetectError{http.StatusTooManyRequests, err}
	}

	status, data, err := validators.ImageValidator(fh, d.MaxSize, d.Allowed)
	if err != nil {
		return nil, &DetectError{status, err}
	}

	name, err := util.StoredName(fh.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate file name, %w", err)
	}

	if err := d.Files.Save(ctx, name, data); err != nil {
		return nil, err
	}

	upload, err := d.classifyAndRecord(ctx, s, name, fh.Filename, data)
	if err != nil {
		if derr := d.Files.Delete(context.WithoutCancel(ctx), name); derr != nil {
			zap.L().Error("Failed to remove stored image after failed detection", zap.String("name", name), zap.Error(derr))
		}

		return nil, err
	}

	d.Quota.Record(s)
	return upload, nil
}

func (d *Detector) classifyAndRecord(ctx context.Context, s *session.Session, name, original string, data []byte) (*model.Upload, error) {
	p, err := d.Queue.Classify(ctx, data)
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			return nil, &DetectError{http.StatusServiceUnavailable, err}
		}

		return nil, &DetectError{http.StatusBadGateway, err}
	}

	upload := &model.Upload{
		Filename:     name,
		OriginalName: original,
		Label:        p.Label,
		Confidence:   p.Confidence,
	}

	if s.Authenticated() {
		upload.UserID = &s.UserID
	} else {
		guestID := d.Quota.Identity(s)
		upload.GuestSessionID = &guestID
	}

	if err := d.DB.WithContext(ctx).Create(upload).Error; err != nil {
		return nil, fmt.Errorf("failed to save upload record, %w", err)
	}

	return upload, nil
}

// History returns the uploads owned by s, newest first. Anonymous sessions
// that never started a guest session have no history
func (d *Detector) History(ctx context.Context, s *session.Session, limit int) ([]model.Upload, error) {
	q := d.DB.WithContext(ctx).Model(&model.Upload{})

	switch {
	case s.Authenticated():
		q = q.Where("user_id = ?", s.UserID)
	case s.GuestID != "":
		q = q.Where("guest_session_id = ?", s.GuestID)
	default:
		return []model.Upload{}, nil
	}

	if limit > 0 {
		q = q.Limit(limit)
	}

	uploads := []model.Upload{}
	if err := q.Order("created_at DESC, id DESC").Find(&uploads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history, %w", err)
	}

	return uploads, nil
}

// Open returns a stored image if it belongs to the owner of s
func (d *Detector) Open(ctx context.Context, s *session.Session, name string) (io.ReadCloser, error) {
	q := d.DB.WithContext(ctx).Model(&model.Upload{}).Where("filename = ?", name)

	switch {
	case s.Authenticated():
		q = q.Where("user_id = ?", s.UserID)
	case s.GuestID != "":
		q = q.Where("guest_session_id = ?", s.GuestID)
	default:
		return nil, ErrFileNotFound
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, ErrFileNotFound
	}

	return d.Files.Open(ctx, name)
}
