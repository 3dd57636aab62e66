package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/jobhub/identity/docs"
	"github.com/jobhub/identity/internal/api/handler"
	"github.com/jobhub/identity/internal/api/middleware"
	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers and guards.
type Deps struct {
	Auth          ports.AuthService
	Authz         ports.Authorizer
	Registrations ports.RegistrationWorkflow
	Access        ports.AccessAdminService
	Users         ports.UserAdminService
	Checks        []handler.HealthCheck
	Log           zerolog.Logger

	// Registry receives the HTTP request metrics. Nil means the default
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(httpMetrics(d.Registry))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Log)
	registrationHandler := handler.NewRegistrationHandler(d.Registrations)
	accessHandler := handler.NewAccessHandler(d.Access)
	userHandler := handler.NewUserHandler(d.Users)
	healthHandler := handler.NewHealthHandler(d.Checks...)

	authn := middleware.Auth(d.Auth, d.Log)
	adminOnly := middleware.RequireRoles(d.Authz, domain.RoleAdmin)
	can := func(codes ...string) echo.MiddlewareFunc {
		return middleware.RequirePermissions(d.Authz, codes...)
	}

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.GET("/auth/me", authHandler.Me, authn)
	e.POST("/auth/password", authHandler.ChangePassword, authn)

	// --- Employer registrations ---
	regs := e.Group("/employer-registrations", authn)
	regs.POST("", registrationHandler.Submit)
	regs.GET("", registrationHandler.List, adminOnly)
	regs.GET("/:id", registrationHandler.Get, adminOnly)
	regs.PATCH("/:id", registrationHandler.Decide, adminOnly)

	// --- Users ---
	users := e.Group("/users", authn)
	users.POST("", userHandler.Create, can(domain.PermUsersCreate))
	users.GET("", userHandler.List, can(domain.PermUsersRead))
	users.GET("/:id", userHandler.Get, can(domain.PermUsersRead))
	users.PATCH("/:id", userHandler.Update, can(domain.PermUsersUpdate))
	users.DELETE("/:id", userHandler.Delete, can(domain.PermUsersDelete))
	users.POST("/:id/roles", accessHandler.AssignRole, can(domain.PermRolesManage))
	users.DELETE("/:id/roles/:role", accessHandler.RemoveRole, can(domain.PermRolesManage))
	users.GET("/:id/roles", accessHandler.ListUserRoles, can(domain.PermUsersRead))
	users.POST("/:id/revoke-tokens", authHandler.RevokeTokens, adminOnly)

	// --- Roles ---
	roles := e.Group("/roles", authn)
	roles.GET("", accessHandler.ListRoles, can(domain.PermRolesRead))
	roles.POST("/:role/permissions", accessHandler.AssignPermission, can(domain.PermRolesManage))
	roles.DELETE("/:role/permissions/:code", accessHandler.RemovePermission, can(domain.PermRolesManage))
	roles.DELETE("/:role", accessHandler.DeleteRole, adminOnly)

	// --- Permissions ---
	perms := e.Group("/permissions", authn)
	perms.GET("", accessHandler.ListPermissions, can(domain.PermPermissionsRead))
	perms.POST("", accessHandler.CreatePermission, adminOnly)
	perms.DELETE("/:code", accessHandler.DeletePermission, adminOnly)

	// --- Ops (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", metricsHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// skipOps keeps health and scrape traffic out of the request metrics.
func skipOps(c echo.Context) bool {
	p := c.Path()
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}

func httpMetrics(reg *prometheus.Registry) echo.MiddlewareFunc {
	conf := echoprometheus.MiddlewareConfig{
		Subsystem: "identity_http",
		Skipper:   skipOps,
	}
	if reg != nil {
		conf.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(conf)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
