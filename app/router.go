package app

import (
	"bitwise74/unmask-api/app/auth"
	"bitwise74/unmask-api/app/detect"
	"bitwise74/unmask-api/app/guest"
	"bitwise74/unmask-api/app/root"
	"bitwise74/unmask-api/internal"
	"bitwise74/unmask-api/pkg/middleware"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the HTTP layer
type Options struct {
	SessionSecret []byte
	SessionTTL    time.Duration
	SecureCookies bool
	CORSOrigins   []string
	// Requests per second per IP. Zero disables rate limiting
	RateLimit     int
	MaxUploadSize int64
	Turnstile     middleware.TurnstileConfig
}

// NewRouter registers every endpoint on a new gin engine
func NewRouter(d *internal.Deps, o Options) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		middleware.NewSessionMiddleware(middleware.SessionConfig{
			Store:  d.Sessions,
			Secret: o.SessionSecret,
			TTL:    o.SessionTTL,
			Secure: o.SecureCookies,
		}),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 8 << 20

	turnstile := middleware.NewTurnstileMiddleware(o.Turnstile)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: o.RateLimit,
		Burst:             o.RateLimit * 2,
	})
	requireAuth := middleware.RequireAuth()
	formLimit := middleware.BodySizeLimiter(1 << 20)

	// Multipart overhead on top of the image itself
	uploadLimit := middleware.BodySizeLimiter(o.MaxUploadSize + 1<<20)

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 			-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })

		// POST /api/guest			-> Starts a guest session
		m.POST("/guest", func(c *gin.Context) { guest.Start(c, d) })

		// POST /api/detect			-> Classifies an uploaded image
		m.POST("/detect", uploadLimit, func(c *gin.Context) { detect.Detect(c, d) })

		// GET /api/history			-> Returns the detections of the current user or guest
		m.GET("/history", func(c *gin.Context) { detect.History(c, d) })

		// GET /api/uploads/:name		-> Serves an uploaded image to its owner
		m.GET("/uploads/:name", cacheForOwner(time.Minute), func(c *gin.Context) { detect.Serve(c, d) })
	}

	a := m.Group("/auth", formLimit)
	{
		// GET /api/auth/me			-> Returns the state of the session
		a.GET("/me", func(c *gin.Context) { auth.Me(c, d) })

		// POST /api/auth/signup		-> Registers a new user and sends a verification code
		a.POST("/signup", turnstile, func(c *gin.Context) { auth.Signup(c, d) })

		// POST /api/auth/signin		-> Signs in a verified user
		a.POST("/signin", func(c *gin.Context) { auth.SignIn(c, d) })

		// POST /api/auth/signout		-> Clears the session
		a.POST("/signout", func(c *gin.Context) { auth.SignOut(c, d) })

		// POST /api/auth/verify		-> Confirms a verification or email change code
		a.POST("/verify", func(c *gin.Context) { auth.Verify(c, d) })

		// POST /api/auth/verify/resend		-> Sends a new code for the pending flow
		a.POST("/verify/resend", func(c *gin.Context) { auth.Resend(c, d) })

		// POST /api/auth/password/forgot	-> Sends a password reset code
		a.POST("/password/forgot", turnstile, func(c *gin.Context) { auth.ForgotPassword(c, d) })

		// POST /api/auth/password/reset	-> Sets a new password using a reset code
		a.POST("/password/reset", func(c *gin.Context) { auth.ResetPassword(c, d) })

		// POST /api/auth/email			-> Starts an email change
		a.POST("/email", requireAuth, func(c *gin.Context) { auth.ChangeEmail(c, d) })
	}

	return router
}

var store = persist.NewMemoryStore(time.Minute)

// cacheForOwner caches responses per session owner so one user's images are
// never served from cache to another
func cacheForOwner(ttl time.Duration) gin.HandlerFunc {
	return cache.Cache(store, ttl, cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
		s := middleware.Session(c)

		owner := s.UserID
		if owner == "" {
			owner = s.GuestID
		}

		if owner == "" {
			return false, cache.Strategy{}
		}

		return true, cache.Strategy{
			CacheKey: owner + ":" + c.Request.RequestURI,
		}
	}))
}
