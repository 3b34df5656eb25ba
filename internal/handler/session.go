package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seat-layout/internal/editor"
	"github.com/iliyamo/venue-seat-layout/internal/middleware"
	"github.com/iliyamo/venue-seat-layout/internal/seatgen"
	"github.com/iliyamo/venue-seat-layout/internal/session"
)

// SessionHandler drives server-held editing sessions: each one carries an
// undo history and auto-saves on the server.
type SessionHandler struct {
	Manager *editor.Manager
}

// NewSessionHandler panics when manager is nil.
func NewSessionHandler(manager *editor.Manager) *SessionHandler {
	if manager == nil {
		panic("nil manager passed to NewSessionHandler")
	}
	return &SessionHandler{Manager: manager}
}

// OpenSession handles POST /v1/layouts/:id/sessions.
func (h *SessionHandler) OpenSession(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	view, err := h.Manager.Open(c.Request().Context(), id, middleware.Editor(c))
	if err != nil {
		log.Printf("sessions: open %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not open layout"})
	}
	return c.JSON(http.StatusCreated, view)
}

// GetSession handles GET /v1/sessions/:sid.
func (h *SessionHandler) GetSession(c echo.Context) error {
	view, err := h.authorize(c)
	return h.respond(c, view, err)
}

// CloseSession handles DELETE /v1/sessions/:sid.  Unsaved changes are
// dropped; the final view tells the client whether there were any.
func (h *SessionHandler) CloseSession(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	view, err := h.Manager.Close(c.Param("sid"))
	return h.respond(c, view, err)
}

// Commit handles POST /v1/sessions/:sid/commit.  The body is the complete
// document after the edit.
func (h *SessionHandler) Commit(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	var body editor.Change
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	view, err := h.Manager.Commit(c.Param("sid"), body)
	return h.respond(c, view, err)
}

// GenerateZone handles POST /v1/sessions/:sid/zones/:zid/generate.  The
// body holds the generation options; the new seats become one undo step.
func (h *SessionHandler) GenerateZone(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	var opts seatgen.Options
	if err := c.Bind(&opts); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if opts.Capacity > MaxSeatsPerRequest {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "capacity is too large"})
	}
	view, err := h.Manager.GenerateZone(c.Param("sid"), c.Param("zid"), opts)
	return h.respond(c, view, err)
}

// Undo handles POST /v1/sessions/:sid/undo.
func (h *SessionHandler) Undo(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	view, err := h.Manager.Undo(c.Param("sid"))
	return h.respond(c, view, err)
}

// Redo handles POST /v1/sessions/:sid/redo.
func (h *SessionHandler) Redo(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	view, err := h.Manager.Redo(c.Param("sid"))
	return h.respond(c, view, err)
}

// Save handles POST /v1/sessions/:sid/save.
func (h *SessionHandler) Save(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	view, err := h.Manager.Save(c.Request().Context(), c.Param("sid"))
	return h.respond(c, view, err)
}

// ForceSave handles POST /v1/sessions/:sid/force-save.  Routed for owners
// only.
func (h *SessionHandler) ForceSave(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	view, err := h.Manager.ForceSave(c.Request().Context(), c.Param("sid"))
	return h.respond(c, view, err)
}

// Reload handles POST /v1/sessions/:sid/reload.
func (h *SessionHandler) Reload(c echo.Context) error {
	if _, err := h.authorize(c); err != nil {
		return h.respond(c, editor.View{}, err)
	}
	view, err := h.Manager.Reload(c.Request().Context(), c.Param("sid"))
	return h.respond(c, view, err)
}

var errForeignSession = errors.New("session belongs to another editor")

// authorize loads the session and checks the caller opened it.  Owners may
// act on any session so they can resolve a designer's conflict.
func (h *SessionHandler) authorize(c echo.Context) (editor.View, error) {
	view, err := h.Manager.Status(c.Param("sid"))
	if err != nil {
		return editor.View{}, err
	}
	if view.Editor != middleware.Editor(c) && middleware.Role(c) != middleware.RoleOwner {
		return editor.View{}, errForeignSession
	}
	return view, nil
}

// respond maps manager errors onto status codes.
func (h *SessionHandler) respond(c echo.Context, view editor.View, err error) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, view)
	case errors.Is(err, editor.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, editor.ErrZoneNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "zone not found"})
	case errors.Is(err, errForeignSession):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, session.ErrSaveInFlight):
		return c.JSON(http.StatusConflict, echo.Map{"error": "save_in_flight", "session": view})
	}
	if ce, ok := session.AsConflict(err); ok {
		body := conflictBody(ce)
		body["session"] = view
		return c.JSON(http.StatusConflict, body)
	}
	log.Printf("sessions: %s: %v", c.Param("sid"), err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "session error"})
}
