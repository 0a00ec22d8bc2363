package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// CreateTraceRequest is the payload supplied by the upload pipeline
type CreateTraceRequest struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	MediaRefs []string `json:"media_refs"`
}

// CreateTrace persists a new trace record
func (h *TracesHandler) CreateTrace(c echo.Context) error {
	var req CreateTraceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	trace := models.TraceRecord{
		Name:       req.Name,
		Coordinate: models.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		MediaRefs:  req.MediaRefs,
	}
	if !trace.Coordinate.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "coordinate out of range")
	}

	if err := h.traceUC.CreateTrace(c.Request().Context(), &trace); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create trace")
	}

	return c.JSON(http.StatusCreated, trace)
}

// ViewportTraces runs a one-shot viewport query. The debounce gate only
// applies to streaming WebSocket sessions.
func (h *TracesHandler) ViewportTraces(c echo.Context) error {
	viewport, err := viewportFromQuery(c)
	if err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return httpErr
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	records, err := h.traceUC.FetchViewport(c.Request().Context(), viewport)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch viewport")
	}

	return c.JSON(http.StatusOK, records)
}

func viewportFromQuery(c echo.Context) (models.Viewport, error) {
	var viewport models.Viewport
	var err error

	if viewport.Center.Latitude, err = queryFloat(c, "lat"); err != nil {
		return viewport, err
	}
	if viewport.Center.Longitude, err = queryFloat(c, "lon"); err != nil {
		return viewport, err
	}
	if viewport.Span.LatDelta, err = queryFloat(c, "lat_delta"); err != nil {
		return viewport, err
	}
	if viewport.Span.LonDelta, err = queryFloat(c, "lon_delta"); err != nil {
		return viewport, err
	}

	return viewport, viewport.Validate()
}

func queryFloat(c echo.Context, name string) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a number")
	}
	return value, nil
}
