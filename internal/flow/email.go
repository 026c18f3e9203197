package flow

import (
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/security"
	"bitwise74/unmask-api/pkg/validators"
	"context"
	"net/http"
)

// ChangeEmail sends a code to the new address. The account keeps its
// current email until Verify confirms the code
func (f *Service) ChangeEmail(ctx context.Context, s *session.Session, form EmailChangeForm) (*Outcome, error) {
	if !s.Authenticated() {
		return nil, &Error{
			Status:   http.StatusUnauthorized,
			Kind:     KindAuthentication,
			Message:  "Please sign in first.",
			Redirect: RedirectSignin,
		}
	}

	form.Email = validators.NormalizeEmail(form.Email)

	if fields := validators.Struct(form); fields != nil {
		return nil, validation(RedirectProfile, fields)
	}

	u, err := f.userByID(ctx, s.UserID)
	if err != nil {
		return nil, internal(RedirectProfile, err)
	}

	if u == nil {
		s.Clear()
		return nil, invalidRequest(RedirectSignin, "Your account no longer exists.")
	}

	if u.Email == form.Email {
		return nil, fieldError(RedirectProfile, "email", "New email must be different from the current one.")
	}

	taken, err := f.emailTaken(ctx, form.Email, u.ID)
	if err != nil {
		return nil, internal(RedirectProfile, err)
	}

	if taken {
		return nil, &Error{
			Status:   http.StatusConflict,
			Kind:     KindConflict,
			Message:  "That email address is already used by another account.",
			Redirect: RedirectProfile,
			Fields:   validators.FieldErrors{"email": {"is already registered"}},
		}
	}

	delivered, err := f.issue(ctx, u, security.PurposeEmailChange, form.Email)
	if err != nil {
		return nil, internal(RedirectProfile, err)
	}

	s.SetPending(session.EmailChangeOf(u.ID, form.Email))

	out := &Outcome{
		Redirect: RedirectVerify,
		Message:  "We sent a verification code to your new email address.",
		Category: CategoryInfo,
	}

	if !delivered {
		out.MailFailed = true
		out.Message = "A verification code was generated, but the email to your new address may not have been delivered."
		out.Category = CategoryWarning
	}

	return out, nil
}
