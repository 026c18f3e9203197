package validators

import (
	"errors"
	"unicode"
)

var (
	ErrPasswordEmpty   = errors.New("no password provided")
	ErrPasswordTooLong = errors.New("password is too long")
	ErrPasswordWeak    = errors.New("password must be 8+ chars with at least one uppercase, one lowercase, and one digit")
)

func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if len([]rune(p)) < 8 || !upper || !lower || !digit {
		return ErrPasswordWeak
	}

	return nil
}
