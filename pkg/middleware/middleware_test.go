package middleware_test

import (
	"bitwise74/unmask-api/internal/session"
	"bitwise74/unmask-api/pkg/middleware"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sessionRouter(store session.Store) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.NewRequestIDMiddleware(),
		middleware.NewSessionMiddleware(middleware.SessionConfig{
			Store:  store,
			Secret: []byte("test-secret"),
			TTL:    time.Hour,
		}),
	)

	r.POST("/guest", func(c *gin.Context) {
		s := middleware.Session(c)
		if s.GuestID == "" {
			s.GuestID = "g1"
			s.Touch()
		}

		if err := middleware.SaveSession(c); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.JSON(http.StatusOK, gin.H{"guestID": s.GuestID})
	})

	r.POST("/login", func(c *gin.Context) {
		middleware.Session(c).Login("user-1")
		middleware.SaveSession(c)
		c.Status(http.StatusNoContent)
	})

	r.GET("/whoami", func(c *gin.Context) {
		s := middleware.Session(c)
		c.JSON(http.StatusOK, gin.H{"userID": s.UserID, "guestID": s.GuestID})
	})

	r.GET("/private", middleware.RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func do(r http.Handler, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			assert.True(t, c.HttpOnly)
			return c
		}
	}

	t.Fatal("no session cookie set")
	return nil
}

func TestSession_RoundTrip(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	defer store.Close()
	r := sessionRouter(store)

	w := do(r, http.MethodPost, "/guest")
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	w = do(r, http.MethodGet, "/whoami", cookie)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "g1", body["guestID"])

	// Unchanged sessions don't get a new cookie
	assert.Empty(t, w.Result().Cookies())
}

func TestSession_InvalidCookieStartsFresh(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	defer store.Close()
	r := sessionRouter(store)

	cookie := sessionCookie(t, do(r, http.MethodPost, "/guest"))
	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	w := do(r, http.MethodGet, "/whoami", cookie)
	assert.NotContains(t, w.Body.String(), "g1")
}

func TestSession_LoginRotatesID(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	defer store.Close()
	r := sessionRouter(store)

	before := sessionCookie(t, do(r, http.MethodPost, "/guest"))

	w := do(r, http.MethodPost, "/login", before)
	require.Equal(t, http.StatusNoContent, w.Code)
	after := sessionCookie(t, w)
	assert.NotEqual(t, before.Value, after.Value)

	// The old cookie no longer resolves to the signed in session
	w = do(r, http.MethodGet, "/whoami", before)
	assert.NotContains(t, w.Body.String(), "user-1")

	w = do(r, http.MethodGet, "/whoami", after)
	assert.Contains(t, w.Body.String(), "user-1")

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/private", after).Code)
}

func TestRequireAuth(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	defer store.Close()

	w := do(sessionRouter(store), http.MethodGet, "/private")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/signin"`)
}

type failingStore struct{ session.Store }

func (failingStore) Load(context.Context, string) (*session.Session, error) {
	return nil, assert.AnError
}

func TestSession_StoreErrorFallsBackToAnonymous(t *testing.T) {
	mem := session.NewMemoryStore(time.Hour)
	defer mem.Close()

	cookie := sessionCookie(t, do(sessionRouter(mem), http.MethodPost, "/login"))

	w := do(sessionRouter(failingStore{mem}), http.MethodGet, "/whoami", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "user-1")
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 1,
		Burst:             1,
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/").Code)
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(middleware.BodySizeLimiter(4))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTurnstile(t *testing.T) {
	cf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)

		ok := body["secret"] == "shh" && body["response"] == "good"
		json.NewEncoder(w).Encode(map[string]any{"success": ok})
	}))
	defer cf.Close()

	r := gin.New()
	r.Use(middleware.NewRequestIDMiddleware())
	r.POST("/", middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled:   true,
		Secret:    "shh",
		VerifyURL: cf.URL,
	}), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if token != "" {
			req.Header.Set("TurnstileToken", token)
		}

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send(""))
	assert.Equal(t, http.StatusUnauthorized, send("bad"))
	assert.Equal(t, http.StatusOK, send("good"))
}
