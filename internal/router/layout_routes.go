package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seat-layout/internal/handler"
	"github.com/iliyamo/venue-seat-layout/internal/middleware"
)

// RegisterLayouts registers versioned layout load and save.  Designers and
// owners may read and save; only owners may force a save over a newer
// version.
func RegisterLayouts(e *echo.Echo, h *handler.LayoutHandler, jwtSecret string) {
	g := e.Group(
		"/v1/layouts",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleDesigner, middleware.RoleOwner),
	)
	g.GET("/:id", h.GetLayout)
	g.PUT("/:id", h.SaveLayout)
	g.PUT("/:id/force", h.ForceSaveLayout, middleware.RequireRole(middleware.RoleOwner))
}

// RegisterSessions registers the server-held editing session endpoints.
func RegisterSessions(e *echo.Echo, h *handler.SessionHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleDesigner, middleware.RoleOwner),
	)
	g.POST("/layouts/:id/sessions", h.OpenSession)

	// ---- Session lifecycle ----
	g.GET("/sessions/:sid", h.GetSession)
	g.DELETE("/sessions/:sid", h.CloseSession)

	// ---- Editing ----
	g.POST("/sessions/:sid/commit", h.Commit)
	g.POST("/sessions/:sid/zones/:zid/generate", h.GenerateZone)
	g.POST("/sessions/:sid/undo", h.Undo)
	g.POST("/sessions/:sid/redo", h.Redo)

	// ---- Persistence ----
	g.POST("/sessions/:sid/save", h.Save)
	g.POST("/sessions/:sid/reload", h.Reload)
	g.POST("/sessions/:sid/force-save", h.ForceSave, middleware.RequireRole(middleware.RoleOwner))
}
