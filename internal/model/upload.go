package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	LabelReal = "REAL"
	LabelFake = "FAKE"
)

var ErrUploadOwner = errors.New("upload must belong to exactly one of a user or a guest session")

// Upload is a single classification result. Rows are never updated after creation
type Upload struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`
	// Name of the object in the file store
	Filename     string  `gorm:"size:255;not null" json:"filename"`
	OriginalName string  `gorm:"size:255" json:"name"`
	Label        string  `gorm:"size:16;not null" json:"label"`
	Confidence   float64 `gorm:"not null" json:"confidence"`

	UserID         *string `gorm:"index" json:"-"`
	GuestSessionID *string `gorm:"size:64;index" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	hasUser := u.UserID != nil && *u.UserID != ""
	hasGuest := u.GuestSessionID != nil && *u.GuestSessionID != ""

	if hasUser == hasGuest {
		return ErrUploadOwner
	}

	if u.Label != LabelReal && u.Label != LabelFake {
		return errors.New("invalid label " + u.Label)
	}

	if u.Confidence < 0 || u.Confidence > 100 {
		return errors.New("confidence out of range")
	}

	return nil
}
