package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

const DefaultTTL = time.Hour * 24 * 7

// Store persists sessions by ID. Load returns ErrNotFound for unknown or
// expired sessions
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
