package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wxproxy/weather-proxy/internal/models"
	"github.com/wxproxy/weather-proxy/internal/observability"
	"github.com/wxproxy/weather-proxy/internal/owm"
)

// Geocoder resolves a free-text place name to its best-match Place.
// A nil Place with nil error means the provider had no match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*models.Place, error)
}

// WeatherFetcher fetches current conditions and the multi-day forecast for
// a coordinate pair. Both calls are plain pass-through GETs returning the
// provider body as a tolerant document.
type WeatherFetcher interface {
	CurrentWeather(ctx context.Context, lat, lon float64, units string) (owm.CurrentDocument, error)
	Forecast(ctx context.Context, lat, lon float64, units string) (owm.ForecastDocument, error)
}

var ErrInvalidAPIKey = errors.New("invalid API key")

// UpstreamError reports a failed OpenWeather call. Status is the upstream
// HTTP status, or 0 when the request never completed (transport failure,
// exhausted retries). Message carries the provider's message/error field
// when the error body had one.
type UpstreamError struct {
	Status  int
	Message string
	cause   error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status == 0 && e.cause != nil:
		return fmt.Sprintf("openweather request failed: %v", e.cause)
	case e.Message != "":
		return fmt.Sprintf("openweather request failed: HTTP %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("openweather request failed: HTTP %d", e.Status)
	}
}

func (e *UpstreamError) Unwrap() error { return e.cause }

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultGeoURL  = "https://api.openweathermap.org/geo/1.0"
)

// Config holds the OpenWeather client settings.
type Config struct {
	APIKey         string
	BaseURL        string // weather/forecast base, default api.openweathermap.org/data/2.5
	GeoURL         string // geocoding base, default api.openweathermap.org/geo/1.0
	GeoLimit       int    // direct-geocoding result limit, default 1
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// OpenWeatherClient implements Geocoder and WeatherFetcher against the
// OpenWeather API with bounded retries on transient failures. All calls are
// idempotent GETs, so retrying is always safe.
type OpenWeatherClient struct {
	apiKey         string
	baseURL        string
	geoURL         string
	geoLimit       int
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	breaker        *gobreaker.CircuitBreaker
}

// NewOpenWeatherClient validates the config and builds a client whose HTTP
// transport applies the connect timeout at dial time and the read timeout to
// the whole exchange.
func NewOpenWeatherClient(cfg Config) (*OpenWeatherClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.GeoURL == "" {
		cfg.GeoURL = defaultGeoURL
	}
	if cfg.GeoLimit <= 0 {
		cfg.GeoLimit = 1
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 3500 * time.Millisecond
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 7 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 4
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 400 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 2 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
	}

	return &OpenWeatherClient{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		geoURL:         strings.TrimRight(cfg.GeoURL, "/"),
		geoLimit:       cfg.GeoLimit,
		retryAttempts:  cfg.RetryAttempts,
		retryBaseDelay: cfg.RetryBaseDelay,
		retryMaxDelay:  cfg.RetryMaxDelay,
		client: &http.Client{
			Timeout:   cfg.ReadTimeout,
			Transport: transport,
		},
	}, nil
}

// SetCircuitBreaker installs a breaker around upstream calls. Optional;
// when the breaker is open, calls fail fast as an UpstreamError 503.
func (c *OpenWeatherClient) SetCircuitBreaker(cb *gobreaker.CircuitBreaker) {
	c.breaker = cb
}

// Geocode calls the direct-geocoding endpoint and maps the first result.
// Returns nil without error when the result list is empty.
func (c *OpenWeatherClient) Geocode(ctx context.Context, query string) (*models.Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.geoLimit))
	params.Set("appid", c.apiKey)

	body, err := c.getWithRetry(ctx, "geocode", c.geoURL+"/direct", params)
	if err != nil {
		return nil, err
	}

	var results []owm.GeocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &UpstreamError{cause: fmt.Errorf("parse geocode response: %w", err)}
	}
	if len(results) == 0 {
		return nil, nil
	}

	hit := results[0]
	return &models.Place{
		Name:    hit.Name,
		Lat:     hit.Lat,
		Lon:     hit.Lon,
		Country: hit.Country,
		State:   hit.State,
	}, nil
}

// CurrentWeather fetches current conditions for the coordinate pair.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, lat, lon float64, units string) (owm.CurrentDocument, error) {
	body, err := c.getWithRetry(ctx, "weather", c.baseURL+"/weather", c.coordParams(lat, lon, units))
	if err != nil {
		return owm.CurrentDocument{}, err
	}
	return owm.DecodeCurrent(body), nil
}

// Forecast fetches the 5-day/3-hour forecast for the coordinate pair.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64, units string) (owm.ForecastDocument, error) {
	body, err := c.getWithRetry(ctx, "forecast", c.baseURL+"/forecast", c.coordParams(lat, lon, units))
	if err != nil {
		return owm.ForecastDocument{}, err
	}
	return owm.DecodeForecast(body), nil
}

func (c *OpenWeatherClient) coordParams(lat, lon float64, units string) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("units", units)
	params.Set("appid", c.apiKey)
	return params
}

// getWithRetry performs the GET with bounded retries on transient failures
// (429 and 5xx statuses, timeouts, connection errors). Exhausted retries
// surface the last error.
func (c *OpenWeatherClient) getWithRetry(ctx context.Context, endpoint, rawURL string, params url.Values) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.Inc()
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, &UpstreamError{cause: ctx.Err()}
			case <-time.After(delay):
			}
		}

		body, err := c.doGet(ctx, endpoint, rawURL, params)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// doGet performs a single upstream GET, routed through the circuit breaker
// when one is installed.
func (c *OpenWeatherClient) doGet(ctx context.Context, endpoint, rawURL string, params url.Values) ([]byte, error) {
	if c.breaker == nil {
		return c.callAPI(ctx, endpoint, rawURL, params)
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.callAPI(ctx, endpoint, rawURL, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &UpstreamError{Status: http.StatusServiceUnavailable, Message: "upstream temporarily unavailable", cause: err}
		}
		return nil, err
	}
	return result.([]byte), nil
}

func (c *OpenWeatherClient) callAPI(ctx context.Context, endpoint, rawURL string, params url.Values) ([]byte, error) {
	start := time.Now()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &UpstreamError{cause: fmt.Errorf("invalid API URL: %w", err)}
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &UpstreamError{cause: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration)
		return nil, &UpstreamError{cause: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	observability.UpstreamRequestsTotal.WithLabelValues(endpoint, statusLabel(resp.StatusCode)).Inc()
	observability.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, cause: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ue := &UpstreamError{Status: resp.StatusCode}
		if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
			ue.Message = owm.ErrorMessage(body)
		}
		return nil, ue
	}

	return body, nil
}

// isRetryable reports whether the call is worth repeating: transient upstream
// statuses, timeouts, and connection-level failures. Breaker-open errors are
// not retried; the breaker already decided the upstream needs a rest.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var ue *UpstreamError
	if errors.As(err, &ue) {
		switch ue.Status {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		case 0:
			// Transport-level failure; fall through to the error text.
		default:
			return false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF")
}

func (c *OpenWeatherClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value("correlation_id"); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
