package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
	"github.com/iliyamo/venue-seat-layout/internal/seatgen"
)

// Request limits for the seat endpoints.  Generation is pure CPU work, so
// oversized requests are refused before they reach the generator.
const (
	MaxPolygonPoints   = 1000
	MaxSeatsPerRequest = 5000
)

// SeatHandler serves the stateless seat generation endpoints.
type SeatHandler struct{}

// NewSeatHandler returns a SeatHandler.
func NewSeatHandler() *SeatHandler { return &SeatHandler{} }

type generateRequest struct {
	Polygon geometry.Polygon `json:"polygon"` // section outline, at least three points
	Options seatgen.Options  `json:"options"` // generation options; zero fields take defaults
}

type capacityRequest struct {
	Polygon  geometry.Polygon `json:"polygon"`
	SeatSize float64          `json:"seat_size"`
	Spacing  float64          `json:"spacing"`
	Pattern  seatgen.Pattern  `json:"pattern"`
}

// Generate handles POST /v1/seats/generate.  It returns the generated seats
// together with the capacity estimate for the same polygon.  A polygon the
// generator cannot use yields an empty seat list, not an error.
func (h *SeatHandler) Generate(c echo.Context) error {
	var body generateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(body.Polygon) > MaxPolygonPoints {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "polygon has too many points"})
	}
	if body.Options.Capacity > MaxSeatsPerRequest {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "capacity is too large"})
	}
	return c.JSON(http.StatusOK, seatgen.NewPlan(body.Polygon, body.Options))
}

// Capacity handles POST /v1/seats/capacity and returns the maximum seat
// estimate the editor uses as the upper bound of its capacity control.
func (h *SeatHandler) Capacity(c echo.Context) error {
	var body capacityRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(body.Polygon) > MaxPolygonPoints {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "polygon has too many points"})
	}
	pattern := seatgen.ParsePattern(string(body.Pattern))
	return c.JSON(http.StatusOK, echo.Map{
		"max_capacity": seatgen.EstimateMaxCapacity(body.Polygon, body.SeatSize, body.Spacing, pattern),
		"pattern":      pattern,
	})
}
