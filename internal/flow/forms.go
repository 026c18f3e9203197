package flow

import (
	"bitwise74/unmask-api/pkg/validators"
	"strings"
)

type SignupForm struct {
	FirstName string `form:"first_name" json:"first_name" validate:"required,min=2,max=80"`
	LastName  string `form:"last_name" json:"last_name" validate:"required,min=2,max=80"`
	Username  string `form:"username" json:"username" validate:"required,min=3,max=80"`
	Email     string `form:"email" json:"email" validate:"required,email,max=255"`
	Password  string `form:"password" json:"password" validate:"required,min=8,max=255"`
	Confirm   string `form:"confirm_password" json:"confirm_password" validate:"required,eqfield=Password"`
}

func (f *SignupForm) normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = validators.NormalizeEmail(f.Email)
}

type SignInForm struct {
	Email    string `form:"email" json:"email" validate:"required,email,max=255"`
	Password string `form:"password" json:"password" validate:"required,max=255"`
}

// VerifyForm is also used for email change confirmation
type VerifyForm struct {
	Code string `form:"code" json:"code" validate:"required,len=6,numeric"`
}

type ForgotForm struct {
	Email string `form:"email" json:"email" validate:"required,email,max=255"`
}

type ResetForm struct {
	Code     string `form:"code" json:"code" validate:"required,len=6,numeric"`
	Password string `form:"password" json:"password" validate:"required,min=8,max=255"`
	Confirm  string `form:"confirm_password" json:"confirm_password" validate:"required,eqfield=Password"`
}

type EmailChangeForm struct {
	Email string `form:"email" json:"email" validate:"required,email,max=255"`
}
