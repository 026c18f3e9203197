// Package model defines database models
package model

import "time"

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:80;not null" json:"firstName"`
	LastName  string `gorm:"size:80;not null" json:"lastName"`
	FullName  string `gorm:"size:160;not null" json:"fullName"`
	Username  string `gorm:"size:80;uniqueIndex;not null" json:"username"`
	// Always stored lower cased and trimmed
	Email         string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	EmailVerified bool   `gorm:"default:false" json:"emailVerified"`

	// At most one code is outstanding at a time. Issuing a new one overwrites it
	VerificationCode        *string    `gorm:"size:6" json:"-"`
	VerificationCodeExpires *time.Time `json:"-"`
	// What the code may be used for and the address it was mailed to. A
	// code only confirms the flow and address it was issued for
	VerificationPurpose string `gorm:"size:16" json:"-"`
	VerificationTarget  string `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	Uploads []Upload `gorm:"foreignKey:UserID" json:"-"`
}
