package security

import (
	"bitwise74/unmask-api/internal/model"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const target = "a@x.com"

func TestIssueCode(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		u := &model.User{}

		code, err := IssueCode(u, PurposeVerify, target, now, DefaultCodeTTL)
		require.NoError(t, err)

		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, codeMin)
		assert.LessOrEqual(t, n, codeMax)

		require.NotNil(t, u.VerificationCode)
		assert.Equal(t, code, *u.VerificationCode)
		assert.True(t, u.VerificationCodeExpires.Equal(now.Add(15*time.Minute)))
		assert.Equal(t, PurposeVerify, u.VerificationPurpose)
		assert.Equal(t, target, u.VerificationTarget)
	}
}

func TestValidateCode(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	u := &model.User{}

	code, err := IssueCode(u, PurposeVerify, target, now, DefaultCodeTTL)
	require.NoError(t, err)

	tests := []struct {
		name      string
		purpose   string
		target    string
		submitted string
		at        time.Time
		want      bool
	}{
		{name: "exact match", submitted: code, at: now, want: true},
		{name: "at expiry", submitted: code, at: now.Add(15 * time.Minute), want: true},
		{name: "one second after expiry", submitted: code, at: now.Add(15*time.Minute + time.Second), want: false},
		{name: "wrong code", submitted: "000000", at: now, want: false},
		{name: "surrounding whitespace", submitted: " " + code + " ", at: now, want: false},
		{name: "empty", submitted: "", at: now, want: false},
		{name: "other purpose", purpose: PurposeReset, submitted: code, at: now, want: false},
		{name: "other target", target: "b@x.com", submitted: code, at: now, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purpose, to := PurposeVerify, target
			if tt.purpose != "" {
				purpose = tt.purpose
			}
			if tt.target != "" {
				to = tt.target
			}

			assert.Equal(t, tt.want, ValidateCode(u, purpose, to, tt.submitted, tt.at))
		})
	}

	// Validation is a pure read
	require.NotNil(t, u.VerificationCode)
	assert.Equal(t, code, *u.VerificationCode)
}

func TestIssueCode_InvalidatesPrevious(t *testing.T) {
	now := time.Now()
	u := &model.User{}

	first, err := IssueCode(u, PurposeEmailChange, "new@x.com", now, DefaultCodeTTL)
	require.NoError(t, err)

	var second string
	for second == "" || second == first {
		second, err = IssueCode(u, PurposeReset, target, now, DefaultCodeTTL)
		require.NoError(t, err)
	}

	assert.False(t, ValidateCode(u, PurposeEmailChange, "new@x.com", first, now))
	// The newer code keeps its own purpose
	assert.False(t, ValidateCode(u, PurposeEmailChange, "new@x.com", second, now))
	assert.True(t, ValidateCode(u, PurposeReset, target, second, now))
}

func TestClearCode(t *testing.T) {
	now := time.Now()
	u := &model.User{}

	code, err := IssueCode(u, PurposeVerify, target, now, DefaultCodeTTL)
	require.NoError(t, err)

	ClearCode(u)

	assert.Nil(t, u.VerificationCode)
	assert.Nil(t, u.VerificationCodeExpires)
	assert.Empty(t, u.VerificationPurpose)
	assert.Empty(t, u.VerificationTarget)
	assert.False(t, ValidateCode(u, PurposeVerify, target, code, now))
	assert.False(t, ValidateCode(nil, PurposeVerify, target, code, now))
}
