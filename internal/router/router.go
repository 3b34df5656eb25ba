package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seat-layout/internal/handler"
	"github.com/iliyamo/venue-seat-layout/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probe endpoints.
func RegisterRoutes(e *echo.Echo, checks map[string]handler.Check) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(checks))
}

// RegisterSeats registers the stateless generation endpoints.  Both run
// behind the token bucket limiter and the response cache: identical
// requests always produce identical seats, so a cached answer is exact.
func RegisterSeats(e *echo.Echo, h *handler.SeatHandler, jwtSecret string, limiter, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/seats",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleDesigner, middleware.RoleOwner),
		limiter, // limit before the cache so cached answers still count
		cache,
	)
	g.POST("/generate", h.Generate)
	g.POST("/capacity", h.Capacity)
}
