package flow

import (
	"bitwise74/unmask-api/internal/model"
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/security"
	"bitwise74/unmask-api/pkg/util"
	"bitwise74/unmask-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (f *Service) Signup(ctx context.Context, s *session.Session, form SignupForm) (*Outcome, error) {
	if s.Authenticated() {
		return &Outcome{Redirect: RedirectDashboard}, nil
	}

	form.normalize()

	if fields := validators.Struct(form); fields != nil {
		return nil, validation(RedirectSignup, fields)
	}

	if err := validators.EmailValidator(form.Email); err != nil {
		return nil, fieldError(RedirectSignup, "email", "Please enter a valid email address.")
	}

	if err := validators.PasswordValidator(form.Password); err != nil {
		return nil, fieldError(RedirectSignup, "password", capitalize(err.Error())+".")
	}

	taken, err := f.emailTaken(ctx, form.Email, "")
	if err != nil {
		return nil, internal(RedirectSignup, err)
	}

	if taken {
		return nil, fieldError(RedirectSignup, "email", "Email is already registered.")
	}

	var count int64
	if err := f.DB.WithContext(ctx).Model(&model.User{}).Where("username = ?", form.Username).Count(&count).Error; err != nil {
		return nil, internal(RedirectSignup, err)
	}

	if count > 0 {
		return nil, fieldError(RedirectSignup, "username", "Username is already taken.")
	}

	hash, err := f.Argon.GenerateFromPassword(form.Password)
	if err != nil {
		return nil, internal(RedirectSignup, fmt.Errorf("failed to hash password, %w", err))
	}

	id, err := util.NewID(16)
	if err != nil {
		return nil, internal(RedirectSignup, err)
	}

	u := &model.User{
		ID:           id,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		FullName:     form.FirstName + " " + form.LastName,
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
	}

	code, err := security.IssueCode(u, security.PurposeVerify, u.Email, f.now(), f.codeTTL())
	if err != nil {
		return nil, internal(RedirectSignup, err)
	}

	if err := f.DB.WithContext(ctx).Create(u).Error; err != nil {
		// Lost a race against another signup with the same email or username
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &Error{
				Status:   http.StatusConflict,
				Kind:     KindValidation,
				Message:  "Email or username is already registered.",
				Redirect: RedirectSignup,
			}
		}

		return nil, internal(RedirectSignup, fmt.Errorf("failed to create user, %w", err))
	}

	s.SetPending(session.VerificationOf(u.Email))

	out := &Outcome{
		Redirect: RedirectVerify,
		Message:  "Account created. Check your email for a verification code.",
		Category: CategorySuccess,
	}

	if err := f.sendCode(u, security.PurposeVerify, u.Email, code); err != nil {
		zap.L().Warn("Failed to deliver verification code", zap.String("user_id", u.ID), zap.Error(err))

		out.MailFailed = true
		out.Message = "Account created, but the verification email may not have been delivered. Request a new code to try again."
		out.Category = CategoryWarning
	}

	return out, nil
}

func (f *Service) SignIn(ctx context.Context, s *session.Session, form SignInForm) (*Outcome, error) {
	if s.Authenticated() {
		return &Outcome{Redirect: RedirectDashboard}, nil
	}

	form.Email = validators.NormalizeEmail(form.Email)

	if fields := validators.Struct(form); fields != nil {
		return nil, validation(RedirectSignin, fields)
	}

	badCredentials := &Error{
		Status:   http.StatusUnauthorized,
		Kind:     KindAuthentication,
		Message:  msgInvalidCredentials,
		Redirect: RedirectSignin,
	}

	u, err := f.userByEmail(ctx, form.Email)
	if err != nil {
		return nil, internal(RedirectSignin, err)
	}

	if u == nil {
		return nil, badCredentials
	}

	ok, err := f.Argon.VerifyPasswd(form.Password, u.PasswordHash)
	if err != nil {
		return nil, internal(RedirectSignin, fmt.Errorf("failed to verify password, %w", err))
	}

	if !ok {
		return nil, badCredentials
	}

	if !u.EmailVerified {
		delivered, err := f.issue(ctx, u, security.PurposeVerify, u.Email)
		if err != nil {
			return nil, internal(RedirectSignin, err)
		}

		s.SetPending(session.VerificationOf(u.Email))

		msg := "Please verify your email before signing in. A new code has been sent."
		if !delivered {
			msg = "Please verify your email before signing in. We could not send a new code, request another one."
		}

		return nil, &Error{
			Status:   http.StatusForbidden,
			Kind:     KindUnverified,
			Message:  msg,
			Redirect: RedirectVerify,
		}
	}

	s.Login(u.ID)
	f.Quota.Reset(s)

	return &Outcome{
		Redirect: RedirectDashboard,
		Message:  "Signed in successfully.",
		Category: CategorySuccess,
	}, nil
}
