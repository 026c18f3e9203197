// Package session holds the server side state of a browser session: who is
// signed in, which verification flow is outstanding and the guest identity
// used for quota accounting
package session

import (
	"encoding/json"
	"time"
)

type PendingKind string

const (
	PendingNone         PendingKind = ""
	PendingVerification PendingKind = "verification"
	PendingReset        PendingKind = "reset"
	PendingEmailChange  PendingKind = "email_change"
)

// Pending is a tagged variant. Only the fields of the active Kind are set,
// so a session can never be waiting for a reset and an email change at the
// same time
type Pending struct {
	Kind PendingKind `json:"kind,omitempty"`
	// Verification and Reset
	Email string `json:"email,omitempty"`
	// EmailChange
	UserID   string `json:"userID,omitempty"`
	NewEmail string `json:"newEmail,omitempty"`
}

func VerificationOf(email string) Pending {
	return Pending{Kind: PendingVerification, Email: email}
}

func ResetOf(email string) Pending {
	return Pending{Kind: PendingReset, Email: email}
}

func EmailChangeOf(userID, newEmail string) Pending {
	return Pending{Kind: PendingEmailChange, UserID: userID, NewEmail: newEmail}
}

type Session struct {
	ID         string    `json:"-"`
	UserID     string    `json:"userID,omitempty"`
	Pending    Pending   `json:"pending"`
	GuestID    string    `json:"guestID,omitempty"`
	GuestCount int       `json:"guestCount,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`

	dirty bool
	renew bool
}

func New() *Session {
	return &Session{CreatedAt: time.Now().UTC()}
}

func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Login marks the session as belonging to userID. Pending flows are dropped
// and the session ID will be rotated on the next save
func (s *Session) Login(userID string) {
	s.UserID = userID
	s.Pending = Pending{}
	s.renew = true
	s.dirty = true
}

// Clear resets the session back to an anonymous one
func (s *Session) Clear() {
	s.UserID = ""
	s.Pending = Pending{}
	s.GuestID = ""
	s.GuestCount = 0
	s.renew = true
	s.dirty = true
}

func (s *Session) SetPending(p Pending) {
	s.Pending = p
	s.dirty = true
}

func (s *Session) ClearPending() {
	s.SetPending(Pending{})
}

// Touch marks the session as modified so it gets persisted
func (s *Session) Touch() {
	s.dirty = true
}

func (s *Session) Dirty() bool {
	return s.dirty
}

// NeedsRenew reports whether the session ID must be replaced before the
// session is saved again
func (s *Session) NeedsRenew() bool {
	return s.renew
}

// Saved is called once the session has been written to a store
func (s *Session) Saved() {
	s.dirty = false
	s.renew = false
}

func Marshal(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

func Unmarshal(id string, b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}

	s.ID = id
	return &s, nil
}
