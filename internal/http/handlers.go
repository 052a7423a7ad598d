package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/wxproxy/weather-proxy/internal/client"
	"github.com/wxproxy/weather-proxy/internal/service"
	"github.com/wxproxy/weather-proxy/internal/validation"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather *service.WeatherService
	logger  *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(weather *service.WeatherService, logger *zap.Logger) *Handler {
	return &Handler{weather: weather, logger: logger}
}

// GetWeather handles GET /api/weather. Accepts either q=<city> or lat+lon
// (coordinates win when both are supplied), plus an optional units param.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := service.Query{
		Lat:         params.Get("lat"),
		Lon:         params.Get("lon"),
		City:        params.Get("q"),
		CityPresent: params.Has("q"),
		Units:       params.Get("units"),
	}

	payload, err := h.weather.GetWeather(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// GetHealth handles GET /healthz. The body is part of the compatibility
// contract and never varies.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps pipeline failures onto the client-facing error
// taxonomy: validation errors are 400s, an unmatched geocode is 404, an
// upstream failure passes the provider's status and message through, and
// anything else is a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *service.NotFoundError
	var upstream *client.UpstreamError

	switch {
	case errors.Is(err, validation.ErrCoordsNotNumbers),
		errors.Is(err, validation.ErrCityEmpty),
		errors.Is(err, validation.ErrCityTooLong),
		errors.Is(err, validation.ErrNoLocation):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})

	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": notFound.Error()})

	case errors.As(err, &upstream):
		status := upstream.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		body := map[string]interface{}{
			"error":  "OpenWeather request failed",
			"status": status,
		}
		if upstream.Message != "" {
			body["owm_message"] = upstream.Message
		}
		h.logUpstreamError(r, err)
		writeJSON(w, status, body)

	default:
		h.logUpstreamError(r, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  "Server error",
			"detail": err.Error(),
		})
	}
}

func (h *Handler) logUpstreamError(r *http.Request, err error) {
	logger := h.logger
	if l, ok := r.Context().Value("logger").(*zap.Logger); ok && l != nil {
		logger = l
	}
	if logger != nil {
		logger.Warn("request failed",
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err))
	}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
