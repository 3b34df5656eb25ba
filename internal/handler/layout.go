package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seat-layout/internal/middleware"
	"github.com/iliyamo/venue-seat-layout/internal/session"
)

// LayoutHandler exposes stored layouts directly, for clients that keep
// their own history and only need versioned load and save.
type LayoutHandler struct {
	Store session.Store
}

// NewLayoutHandler panics when store is nil.
func NewLayoutHandler(store session.Store) *LayoutHandler {
	if store == nil {
		panic("nil store passed to NewLayoutHandler")
	}
	return &LayoutHandler{Store: store}
}

type layoutResponse struct {
	ID           string          `json:"id"`
	Payload      json.RawMessage `json:"payload"`
	Version      int64           `json:"version"`
	LastEditedBy string          `json:"last_edited_by,omitempty"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

type saveLayoutRequest struct {
	Payload         json.RawMessage `json:"payload"`
	ExpectedVersion int64           `json:"expected_version"`
}

// GetLayout handles GET /v1/layouts/:id.
func (h *LayoutHandler) GetLayout(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	doc, err := h.Store.Load(c.Request().Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "layout not found"})
	}
	if err != nil {
		log.Printf("layouts: load %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	resp := layoutResponse{ID: id, Payload: doc.Payload, Version: doc.Version, LastEditedBy: doc.LastEditedBy}
	if !doc.UpdatedAt.IsZero() {
		t := doc.UpdatedAt
		resp.UpdatedAt = &t
	}
	return c.JSON(http.StatusOK, resp)
}

// SaveLayout handles PUT /v1/layouts/:id.  The write only succeeds when
// expected_version matches the stored version; otherwise the caller gets a
// 409 naming the current version and its author.
func (h *LayoutHandler) SaveLayout(c echo.Context) error {
	return h.save(c, false)
}

// ForceSaveLayout handles PUT /v1/layouts/:id/force and overwrites the
// layout whatever its version.  Routed for owners only.
func (h *LayoutHandler) ForceSaveLayout(c echo.Context) error {
	return h.save(c, true)
}

func (h *LayoutHandler) save(c echo.Context, force bool) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body saveLayoutRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(body.Payload) == 0 || string(body.Payload) == "null" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "payload is required"})
	}
	if body.ExpectedVersion < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "expected_version must not be negative"})
	}
	editor := middleware.Editor(c)
	version, err := h.Store.Save(c.Request().Context(), session.SaveRequest{
		LayoutID:        id,
		Payload:         body.Payload,
		ExpectedVersion: body.ExpectedVersion,
		Force:           force,
		Editor:          editor,
	})
	if ce, ok := session.AsConflict(err); ok {
		return c.JSON(http.StatusConflict, conflictBody(ce))
	}
	if err != nil {
		log.Printf("layouts: save %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "version": version, "last_edited_by": editor, "forced": force})
}

// conflictBody is the 409 payload shared by every save endpoint.
func conflictBody(ce *session.ConflictError) echo.Map {
	return echo.Map{
		"error":            "version_conflict",
		"layout_id":        ce.LayoutID,
		"expected_version": ce.ExpectedVersion,
		"current_version":  ce.CurrentVersion,
		"last_edited_by":   ce.LastEditedBy,
	}
}
