package api

import (
	"net/http"
	"time"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Prefix is the route prefix of every account and user endpoint.
const Prefix = "/api/v1"

const requestKey = "goaccounts.request"

// Options configures a Server.
type Options struct {
	Logger zerolog.Logger
	// Bearer carries credentials in the Authorization and X-Session-Token
	// headers instead of the session cookie.
	Bearer bool
	// Metrics, when set, is served at GET /metrics.
	Metrics http.Handler
	// BodyLimit caps request bodies, in echo's size notation. Default "64K".
	BodyLimit string
}

// Server serves the account API. Build it with [New].
type Server struct {
	engine  *goAccounts.Engine
	logger  zerolog.Logger
	bearer  bool
	metrics http.Handler
	echo    *echo.Echo
}

// New builds the echo instance and registers every route.
func New(engine *goAccounts.Engine, opts Options) *Server {
	s := &Server{
		engine:  engine,
		logger:  opts.Logger.With().Str("component", "api").Logger(),
		bearer:  opts.Bearer,
		metrics: opts.Metrics,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(s.logger)

	limit := opts.BodyLimit
	if limit == "" {
		limit = "64K"
	}
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(limit))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			s.logger.Debug().
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s.echo = e
	s.routes()
	return s
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// ServeHTTP makes the server usable as a plain http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) routes() {
	e := s.echo
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	v1 := e.Group(Prefix, s.attach)
	v1.GET("/health", s.health)

	account := v1.Group("/account")
	account.POST("/signup", s.signUp)
	account.POST("/login", s.logIn)
	account.DELETE("/logout", s.logOut)
	account.PUT("/password", s.changePassword)
	account.GET("/me", s.me)

	users := v1.Group("/users")
	users.POST("", s.createUser)
	users.GET("", s.listUsers)
	users.PUT("/:id/password", s.setUserPassword)
	users.PUT("/:id/roles/admin", s.grantAdmin)
	users.DELETE("/:id/roles/admin", s.revokeAdmin)
	users.PUT("/:id/activation", s.activateUser)
	users.DELETE("/:id/activation", s.deactivateUser)
}

// attach creates the per-request accounts Request and tags the context
// with the client IP.
func (s *Server) attach(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		r = r.WithContext(goAccounts.WithClientIP(r.Context(), c.RealIP()))
		c.SetRequest(r)

		w := c.Response()
		if s.bearer {
			c.Set(requestKey, s.engine.NewBearerRequest(w, r))
		} else {
			c.Set(requestKey, s.engine.NewCookieRequest(w, r))
		}
		return next(c)
	}
}

func accounts(c echo.Context) *goAccounts.Request {
	req, _ := c.Get(requestKey).(*goAccounts.Request)
	return req
}

type healthResponse struct {
	Status         string `json:"status"`
	Redis          bool   `json:"redis"`
	RedisLatencyMS int64  `json:"redis_latency_ms"`
	Users          bool   `json:"users"`
}

func (s *Server) health(c echo.Context) error {
	h := s.engine.Health(c.Request().Context())
	resp := healthResponse{
		Status:         "ok",
		Redis:          h.Redis,
		RedisLatencyMS: h.RedisLatency.Round(time.Millisecond).Milliseconds(),
		Users:          h.Users,
	}
	if !h.OK() {
		resp.Status = "degraded"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
