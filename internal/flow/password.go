package flow

import (
	"bitwise74/unmask-api/internal/model"
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/security"
	"bitwise74/unmask-api/pkg/validators"
	"context"
	"fmt"
	"strings"
)

const msgResetSent = "If an account exists for that email, a reset code has been sent."

// ForgotPassword starts a reset. The response never reveals whether the
// email belongs to an account or whether the mail went out
func (f *Service) ForgotPassword(ctx context.Context, s *session.Session, form ForgotForm) (*Outcome, error) {
	form.Email = validators.NormalizeEmail(form.Email)

	if fields := validators.Struct(form); fields != nil {
		return nil, validation(RedirectForgot, fields)
	}

	var u *model.User
	var err error

	if s.Authenticated() {
		u, err = f.userByID(ctx, s.UserID)
		if err != nil {
			return nil, internal(RedirectForgot, err)
		}

		if u == nil || !strings.EqualFold(u.Email, form.Email) {
			return nil, fieldError(RedirectForgot, "email", "Please enter the email address of your account.")
		}
	} else {
		u, err = f.userByEmail(ctx, form.Email)
		if err != nil {
			return nil, internal(RedirectForgot, err)
		}
	}

	if u != nil {
		if _, err := f.issue(ctx, u, security.PurposeReset, u.Email); err != nil {
			return nil, internal(RedirectForgot, err)
		}
	}

	s.SetPending(session.ResetOf(form.Email))

	return &Outcome{
		Redirect: RedirectReset,
		Message:  msgResetSent,
		Category: CategoryInfo,
	}, nil
}

func (f *Service) ResetPassword(ctx context.Context, s *session.Session, form ResetForm) (*Outcome, error) {
	if s.Pending.Kind != session.PendingReset {
		return nil, invalidRequest(RedirectForgot, "No password reset in progress. Please request a reset code first.")
	}

	if fields := validators.Struct(form); fields != nil {
		if _, bad := fields["code"]; bad {
			return nil, invalidCode(RedirectReset)
		}

		return nil, validation(RedirectReset, fields)
	}

	if err := validators.PasswordValidator(form.Password); err != nil {
		return nil, fieldError(RedirectReset, "password", capitalize(err.Error())+".")
	}

	u, err := f.userByEmail(ctx, s.Pending.Email)
	if err != nil {
		return nil, internal(RedirectReset, err)
	}

	// Unknown accounts fail exactly like a wrong code
	if u == nil || !security.ValidateCode(u, security.PurposeReset, u.Email, form.Code, f.now()) {
		return nil, invalidCode(RedirectReset)
	}

	hash, err := f.Argon.GenerateFromPassword(form.Password)
	if err != nil {
		return nil, internal(RedirectReset, fmt.Errorf("failed to hash password, %w", err))
	}

	security.ClearCode(u)

	fields := codeFields(u)
	fields["password_hash"] = hash

	err = f.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(fields).
		Error
	if err != nil {
		return nil, internal(RedirectReset, fmt.Errorf("failed to update password, %w", err))
	}

	s.ClearPending()

	if s.Authenticated() {
		return &Outcome{
			Redirect: RedirectProfile,
			Message:  "Password updated.",
			Category: CategorySuccess,
		}, nil
	}

	return &Outcome{
		Redirect: RedirectSignin,
		Message:  "Password updated. You can now sign in.",
		Category: CategorySuccess,
	}, nil
}
