// routes.go - Route registration helpers
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserHeader carries the identity issued by the auth provider in front of the service.
const UserHeader = "X-User-ID"

// Dependencies holds all handler dependencies
type Dependencies struct {
	Service       CargoService
	Log           *zap.Logger
	Location      *time.Location   //zone ETAs are evaluated in
	Now           func() time.Time //nil means time.Now
	DefaultUserID string           //used when a request carries no UserHeader
	Refresh       time.Duration    //how often live views re-render without a change
	Version       string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Cargo  *CargoHandler
	Stream *StreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Refresh <= 0 {
		deps.Refresh = time.Second
	}
	cargoHandler := NewCargoHandler(deps)
	return &Handlers{
		Health: NewHealthHandler(deps.Service, deps.Version),
		Cargo:  cargoHandler,
		Stream: NewStreamHandler(deps),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/health", handlers.Health.HandleHealth)

	cargoGroup := e.Group("/api/cargo")
	cargoGroup.GET("", handlers.Cargo.HandleList)
	cargoGroup.POST("", handlers.Cargo.HandleCreate)
	cargoGroup.GET("/stream", handlers.Stream.HandleStream)
	cargoGroup.GET("/:id", handlers.Cargo.HandleGet)
	cargoGroup.PUT("/:id", handlers.Cargo.HandleUpdate)
	cargoGroup.DELETE("/:id", handlers.Cargo.HandleDelete)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	e.HTTPErrorHandler = ErrorHandler
	e.Use(requestLogger(log))
}

// requestLogger logs one line per request with the zap logger.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug("http request",
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		}
	}
}
