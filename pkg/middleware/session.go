package middleware

import (
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/util"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	SessionCookie = "session"

	sessionKey       = "session"
	sessionConfigKey = "sessionConfig"
	sessionIDLength  = 32
)

type SessionConfig struct {
	Store  session.Store
	Secret []byte
	TTL    time.Duration
	// Marks the cookie Secure. Enable when served over TLS
	Secure bool
}

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionMiddleware loads the session named by the signed session cookie,
// or starts an empty one, and makes it available through Session. Handlers
// that change the session must call SaveSession before writing a response
// so the cookie can still be set
func NewSessionMiddleware(cfg SessionConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = session.DefaultTTL
	}

	return func(c *gin.Context) {
		s := loadSession(c, &cfg)

		c.Set(sessionKey, s)
		c.Set(sessionConfigKey, &cfg)

		if s.Authenticated() {
			c.Set("userID", s.UserID)
		}

		c.Next()

		if s.Dirty() {
			if err := SaveSession(c); err != nil {
				zap.L().Error("Failed to save session after request", zap.Error(err))
			}
		}
	}
}

func loadSession(c *gin.Context, cfg *SessionConfig) *session.Session {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return session.New()
	}

	var claims sessionClaims

	_, err = jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || claims.SID == "" {
		zap.L().Debug("Discarding invalid session cookie", zap.Error(err))
		return session.New()
	}

	s, err := cfg.Store.Load(c.Request.Context(), claims.SID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			zap.L().Error("Failed to load session", zap.Error(err))
		}

		return session.New()
	}

	return s
}

// Session returns the session of the current request
func Session(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// SaveSession persists the session if it changed and sets the cookie. The
// session ID is replaced when the session is new or was renewed
func SaveSession(c *gin.Context) error {
	s := Session(c)
	cfg := c.MustGet(sessionConfigKey).(*SessionConfig)

	if !s.Dirty() {
		return nil
	}

	ctx := c.Request.Context()
	oldID := s.ID

	if s.ID == "" || s.NeedsRenew() {
		id, err := util.NewID(sessionIDLength)
		if err != nil {
			return fmt.Errorf("failed to generate session id, %w", err)
		}

		s.ID = id
	}

	if err := cfg.Store.Save(ctx, s); err != nil {
		return err
	}

	if oldID != "" && oldID != s.ID {
		if err := cfg.Store.Delete(ctx, oldID); err != nil {
			zap.L().Warn("Failed to delete rotated session", zap.Error(err))
		}
	}

	s.Saved()

	if oldID == s.ID {
		return nil
	}

	if c.Writer.Written() {
		zap.L().Warn("Session ID changed after the response was written, cookie not updated")
		return nil
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	})

	signed, err := token.SignedString(cfg.Secret)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie, %w", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, signed, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)

	return nil
}

// RequireAuth rejects requests from sessions that aren't signed in
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Session(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Please sign in first.",
				"redirect":  "/signin",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
