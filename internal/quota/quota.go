// Package quota limits how many classifications an anonymous browser
// session can run
package quota

import (
	"bitwise74/unmask-api/internal/session"
	"errors"

	"github.com/google/uuid"
)

const DefaultLimit = 2

var ErrExceeded = errors.New("guest detection limit reached, sign up to keep analyzing images")

type Tracker struct {
	Limit int
}

func New(limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Tracker{Limit: limit}
}

// Identity returns the guest token of s, assigning one on first use
func (t *Tracker) Identity(s *session.Session) string {
	if s.GuestID == "" {
		s.GuestID = uuid.NewString()
		s.GuestCount = 0
		s.Touch()
	}

	return s.GuestID
}

// Check returns ErrExceeded once an anonymous session has used up its quota.
// Signed in users are never limited
func (t *Tracker) Check(s *session.Session) error {
	if s.Authenticated() {
		return nil
	}

	if s.GuestCount >= t.Limit {
		return ErrExceeded
	}

	return nil
}

// Record counts one successful classification
func (t *Tracker) Record(s *session.Session) {
	if s.Authenticated() {
		return
	}

	s.GuestCount++
	s.Touch()
}

// Remaining returns -1 for signed in users
func (t *Tracker) Remaining(s *session.Session) int {
	if s.Authenticated() {
		return -1
	}

	return max(t.Limit-s.GuestCount, 0)
}

// Reset drops the guest identity and its counter. Quota belongs to the
// anonymous session, not to whoever signs in from it
func (t *Tracker) Reset(s *session.Session) {
	if s.GuestID == "" && s.GuestCount == 0 {
		return
	}

	s.GuestID = ""
	s.GuestCount = 0
	s.Touch()
}
