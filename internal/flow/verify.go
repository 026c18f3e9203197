package flow

import (
	"bitwise74/unmask-api/internal/model"
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/security"
	"bitwise74/unmask-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

const msgNoPending = "There is nothing to verify. Please sign up or sign in first."

// pendingUser resolves whose code a verify or resend request is about. An
// email change wins over a signup verification, and an authenticated but
// unverified user is the fallback. A nil user means nothing is pending
func (f *Service) pendingUser(ctx context.Context, s *session.Session) (*model.User, error) {
	switch s.Pending.Kind {
	case session.PendingEmailChange:
		return f.userByID(ctx, s.Pending.UserID)
	case session.PendingVerification:
		return f.userByEmail(ctx, s.Pending.Email)
	}

	if s.Authenticated() {
		u, err := f.userByID(ctx, s.UserID)
		if err != nil || u == nil || u.EmailVerified {
			return nil, err
		}

		return u, nil
	}

	return nil, nil
}

func (f *Service) Verify(ctx context.Context, s *session.Session, form VerifyForm) (*Outcome, error) {
	u, err := f.pendingUser(ctx, s)
	if err != nil {
		return nil, internal(RedirectVerify, err)
	}

	if u == nil {
		// The account behind the pending flow is gone
		if s.Pending.Kind != session.PendingNone && s.Pending.Kind != session.PendingReset {
			s.ClearPending()
		}

		return nil, invalidRequest(RedirectSignup, msgNoPending)
	}

	if fields := validators.Struct(form); fields != nil {
		return nil, invalidCode(RedirectVerify)
	}

	purpose, target := security.PurposeVerify, u.Email
	if s.Pending.Kind == session.PendingEmailChange {
		purpose, target = security.PurposeEmailChange, s.Pending.NewEmail
	}

	if !security.ValidateCode(u, purpose, target, form.Code, f.now()) {
		return nil, invalidCode(RedirectVerify)
	}

	if purpose == security.PurposeEmailChange {
		return f.confirmEmailChange(ctx, s, u)
	}

	security.ClearCode(u)

	fields := codeFields(u)
	fields["email_verified"] = true

	err = f.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(fields).
		Error
	if err != nil {
		return nil, internal(RedirectVerify, fmt.Errorf("failed to mark user verified, %w", err))
	}

	s.ClearPending()

	if s.Authenticated() {
		return &Outcome{
			Redirect: RedirectProfile,
			Message:  "Email verified.",
			Category: CategorySuccess,
		}, nil
	}

	s.Login(u.ID)
	f.Quota.Reset(s)

	return &Outcome{
		Redirect: RedirectDashboard,
		Message:  "Email verified. Welcome!",
		Category: CategorySuccess,
	}, nil
}

func (f *Service) confirmEmailChange(ctx context.Context, s *session.Session, u *model.User) (*Outcome, error) {
	newEmail := s.Pending.NewEmail

	conflict := &Error{
		Status:   http.StatusConflict,
		Kind:     KindConflict,
		Message:  "That email address is already used by another account.",
		Redirect: RedirectProfile,
		Fields:   validators.FieldErrors{"email": {"is already registered"}},
	}

	taken, err := f.emailTaken(ctx, newEmail, u.ID)
	if err != nil {
		return nil, internal(RedirectVerify, err)
	}

	if taken {
		return nil, conflict
	}

	security.ClearCode(u)

	fields := codeFields(u)
	fields["email"] = newEmail
	fields["email_verified"] = true

	err = f.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(fields).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict
		}

		return nil, internal(RedirectVerify, fmt.Errorf("failed to update email, %w", err))
	}

	s.ClearPending()

	return &Outcome{
		Redirect: RedirectProfile,
		Message:  "Email address updated.",
		Category: CategorySuccess,
	}, nil
}

// Resend issues a new code for whichever flow is pending. The previous code
// stops working
func (f *Service) Resend(ctx context.Context, s *session.Session) (*Outcome, error) {
	if s.Pending.Kind == session.PendingReset {
		return f.resendReset(ctx, s)
	}

	u, err := f.pendingUser(ctx, s)
	if err != nil {
		return nil, internal(RedirectVerify, err)
	}

	if u == nil {
		return nil, invalidRequest(RedirectSignup, msgNoPending)
	}

	purpose, to := security.PurposeVerify, u.Email
	if s.Pending.Kind == session.PendingEmailChange {
		purpose, to = security.PurposeEmailChange, s.Pending.NewEmail
	} else if u.EmailVerified {
		s.ClearPending()

		return &Outcome{
			Redirect: RedirectSignin,
			Message:  "Your email is already verified. Please sign in.",
			Category: CategoryInfo,
		}, nil
	}

	delivered, err := f.issue(ctx, u, purpose, to)
	if err != nil {
		return nil, internal(RedirectVerify, err)
	}

	out := &Outcome{
		Redirect: RedirectVerify,
		Message:  "A new verification code has been sent.",
		Category: CategoryInfo,
	}

	if !delivered {
		out.MailFailed = true
		out.Message = "A new code was generated, but the email may not have been delivered."
		out.Category = CategoryWarning
	}

	return out, nil
}

func (f *Service) resendReset(ctx context.Context, s *session.Session) (*Outcome, error) {
	out := &Outcome{
		Redirect: RedirectReset,
		Message:  msgResetSent,
		Category: CategoryInfo,
	}

	u, err := f.userByEmail(ctx, s.Pending.Email)
	if err != nil {
		return nil, internal(RedirectReset, err)
	}

	if u == nil {
		return out, nil
	}

	if _, err := f.issue(ctx, u, security.PurposeReset, u.Email); err != nil {
		return nil, internal(RedirectReset, err)
	}

	return out, nil
}
