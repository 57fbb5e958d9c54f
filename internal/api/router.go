package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/aidattendance/portal/docs"
	"github.com/aidattendance/portal/internal/api/handler"
	"github.com/aidattendance/portal/internal/api/middleware"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
	"github.com/aidattendance/portal/internal/infrastructure/http/handlers"
)

// Deps are the services the router wires into handlers. Mongo and Redis are
// optional and only used by the readiness probe. A nil Registerer selects the
// default Prometheus registry.
type Deps struct {
	Flows    ports.FlowRegistry
	Tokens   ports.TokenService
	Accounts ports.AccountService
	Table    domain.AccessTable
	Limiter  *middleware.RateLimiter
	Mongo    *mongo.Database
	Redis    *redis.Client
	Log      zerolog.Logger

	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "portal",
		Registerer: d.Registerer,
	}))
	e.Use(middleware.Authenticate(d.Tokens, d.Flows, d.Log))

	authHandler := handler.NewAuthHandler(d.Flows, d.Tokens, d.Log)
	accessHandler := handler.NewAccessHandler(d.Table)
	accountHandler := handler.NewAccountHandler(d.Accounts)
	limited := d.Limiter.Middleware()
	session := middleware.RequireSession()

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login, limited)
	auth.POST("/otp", authHandler.ConfirmOtp, limited)
	auth.POST("/otp/resend", authHandler.ResendOtp, limited)
	auth.POST("/otp/abandon", authHandler.AbandonOtp)
	auth.GET("/otp/status", authHandler.OtpStatus)
	auth.POST("/logout", authHandler.Logout, session)
	auth.GET("/session", authHandler.Session)
	auth.POST("/forgot-password", accountHandler.ForgotPassword, limited)
	auth.POST("/reset-password", accountHandler.ResetPassword, limited)

	// --- Account routes ---
	account := e.Group("/account", session)
	account.POST("/password", accountHandler.ChangePassword)
	account.GET("/profile", accountHandler.Profile)
	account.PUT("/profile", accountHandler.UpdateProfile)

	// --- Access routes ---
	e.GET("/nav", accessHandler.Nav)
	e.GET("/routes/check", accessHandler.RouteCheck)
	for _, entry := range d.Table.Entries {
		e.GET(entry.Rule.Path, accessHandler.Page(entry), middleware.Guard(entry.Rule))
	}

	// --- Health probes (no auth required) ---
	var probes []handlers.Probe
	if d.Mongo != nil {
		probes = append(probes, handlers.MongoProbe(d.Mongo))
	}
	if d.Redis != nil {
		probes = append(probes, handlers.RedisProbe(d.Redis))
	}
	healthHandler := handlers.NewHealthHandler(probes...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
