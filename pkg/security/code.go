package security

import (
	"bitwise74/unmask-api/internal/model"
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strconv"
	"time"
)

const (
	DefaultCodeTTL = time.Minute * 15

	codeMin = 100000
	codeMax = 999999
)

// Purposes a code can be issued for
const (
	PurposeVerify      = "verify"
	PurposeReset       = "reset"
	PurposeEmailChange = "email_change"
)

var codeRange = big.NewInt(codeMax - codeMin + 1)

// IssueCode generates a new 6 digit code for purpose, mailed to target, and
// stores it on u together with its expiry. Any code issued before is
// replaced
func IssueCode(u *model.User, purpose, target string, now time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}

	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", err
	}

	code := strconv.FormatInt(n.Int64()+codeMin, 10)
	expires := now.UTC().Add(ttl)

	u.VerificationCode = &code
	u.VerificationCodeExpires = &expires
	u.VerificationPurpose = purpose
	u.VerificationTarget = target

	return code, nil
}

// ValidateCode reports whether submitted matches the code stored on u, the
// code was issued for purpose and target, and it hasn't expired at now. It
// never mutates u, callers have to ClearCode after acting on a valid code
func ValidateCode(u *model.User, purpose, target, submitted string, now time.Time) bool {
	if u == nil || u.VerificationCode == nil || u.VerificationCodeExpires == nil {
		return false
	}

	if u.VerificationPurpose != purpose || u.VerificationTarget != target {
		return false
	}

	if now.After(*u.VerificationCodeExpires) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(submitted), []byte(*u.VerificationCode)) == 1
}

func ClearCode(u *model.User) {
	u.VerificationCode = nil
	u.VerificationCodeExpires = nil
	u.VerificationPurpose = ""
	u.VerificationTarget = ""
}
