// Package flow implements the account state machine: signup, sign in, email
// verification, password reset and email change. Every transition reads and
// mutates a *session.Session which the caller persists afterwards
package flow

import (
	"bitwise74/unmask-api/internal/model"
	"bitwise74/unmask-api/internal/quota"
	"bitwise74/unmask-api/internal/service"
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/security"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pages the client is sent to after a transition
const (
	RedirectSignup    = "/signup"
	RedirectSignin    = "/signin"
	RedirectVerify    = "/verify"
	RedirectForgot    = "/forgot-password"
	RedirectReset     = "/reset-password"
	RedirectDashboard = "/dashboard"
	RedirectProfile   = "/profile"
)

const (
	CategorySuccess = "success"
	CategoryInfo    = "info"
	CategoryWarning = "warning"
)

// Outcome is a successful transition
type Outcome struct {
	Redirect string `json:"redirect"`
	Message  string `json:"message,omitempty"`
	Category string `json:"category,omitempty"`
	// Set when the code was issued but the mail couldn't be delivered
	MailFailed bool `json:"mailFailed,omitempty"`
}

type Service struct {
	DB      *gorm.DB
	Argon   *security.ArgonHash
	Mailer  service.Mailer
	Quota   *quota.Tracker
	CodeTTL time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

func (f *Service) now() time.Time {
	if f.Now != nil {
		return f.Now().UTC()
	}

	return time.Now().UTC()
}

func (f *Service) codeTTL() time.Duration {
	if f.CodeTTL <= 0 {
		return security.DefaultCodeTTL
	}

	return f.CodeTTL
}

// userByEmail returns nil without an error when no user owns email
func (f *Service) userByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := f.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (f *Service) userByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := f.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &u, nil
}

// emailTaken reports whether a user other than exceptID owns email
func (f *Service) emailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var count int64

	q := f.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// codeFields returns the code columns of u for an Updates call
func codeFields(u *model.User) map[string]any {
	return map[string]any{
		"verification_code":         u.VerificationCode,
		"verification_code_expires": u.VerificationCodeExpires,
		"verification_purpose":      u.VerificationPurpose,
		"verification_target":       u.VerificationTarget,
	}
}

// saveCode persists the code fields of u. Concurrent issues for the same
// user overwrite each other, the last write wins
func (f *Service) saveCode(ctx context.Context, u *model.User) error {
	return f.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(codeFields(u)).
		Error
}

func (f *Service) sendCode(u *model.User, purpose, to, code string) error {
	if purpose == security.PurposeReset {
		return service.SendPasswordResetMail(f.Mailer, u, code, f.codeTTL())
	}

	return service.SendVerificationMail(f.Mailer, u, to, code, f.codeTTL())
}

// issue creates a fresh code for purpose, stores it on u and mails it to to.
// The returned bool is false when delivery failed, which isn't an error
func (f *Service) issue(ctx context.Context, u *model.User, purpose, to string) (bool, error) {
	code, err := security.IssueCode(u, purpose, to, f.now(), f.codeTTL())
	if err != nil {
		return false, err
	}

	if err := f.saveCode(ctx, u); err != nil {
		return false, err
	}

	if err := f.sendCode(u, purpose, to, code); err != nil {
		zap.L().Warn("Failed to deliver code", zap.String("user_id", u.ID), zap.String("purpose", purpose), zap.Error(err))
		return false, nil
	}

	return true, nil
}

// Status summarizes the session for the client
type Status struct {
	Authenticated  bool                `json:"authenticated"`
	User           *model.User         `json:"user,omitempty"`
	Pending        session.PendingKind `json:"pending,omitempty"`
	PendingEmail   string              `json:"pendingEmail,omitempty"`
	Guest          bool                `json:"guest"`
	GuestRemaining int                 `json:"guestRemaining"`
}

func (f *Service) Status(ctx context.Context, s *session.Session) (*Status, error) {
	st := &Status{
		Pending:        s.Pending.Kind,
		Guest:          !s.Authenticated() && s.GuestID != "",
		GuestRemaining: f.Quota.Remaining(s),
	}

	switch s.Pending.Kind {
	case session.PendingEmailChange:
		st.PendingEmail = s.Pending.NewEmail
	case session.PendingVerification, session.PendingReset:
		st.PendingEmail = s.Pending.Email
	}

	if !s.Authenticated() {
		return st, nil
	}

	u, err := f.userByID(ctx, s.UserID)
	if err != nil {
		return nil, internal(RedirectSignin, err)
	}

	// The account is gone, treat the session as anonymous
	if u == nil {
		s.Clear()
		return &Status{GuestRemaining: f.Quota.Remaining(s)}, nil
	}

	st.Authenticated = true
	st.User = u
	return st, nil
}

// SignOut drops the user and any pending flow. An anonymous session keeps
// its guest identity and usage so signing out can't refill the quota
func (f *Service) SignOut(_ context.Context, s *session.Session) *Outcome {
	if s.Authenticated() {
		s.Clear()
	} else {
		s.ClearPending()
	}

	return &Outcome{
		Redirect: RedirectSignin,
		Message:  "Signed out.",
		Category: CategoryInfo,
	}
}

// StartGuest gives an anonymous session its guest identity
func (f *Service) StartGuest(_ context.Context, s *session.Session) *Outcome {
	if s.Authenticated() {
		return &Outcome{Redirect: RedirectDashboard}
	}

	f.Quota.Identity(s)

	return &Outcome{
		Redirect: RedirectDashboard,
		Message:  "You are browsing as Guest. Sign up to keep your history across devices.",
		Category: CategoryInfo,
	}
}
