package model

import "time"

// Session is the database row backing a server side session. Data holds
// the JSON encoded session state
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Data      []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}
