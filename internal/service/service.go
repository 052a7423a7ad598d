package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wxproxy/weather-proxy/internal/cache"
	"github.com/wxproxy/weather-proxy/internal/client"
	"github.com/wxproxy/weather-proxy/internal/models"
	"github.com/wxproxy/weather-proxy/internal/observability"
)

// Query holds the raw request parameters before validation. CityPresent
// distinguishes "q=" (empty, a validation error) from q absent entirely
// (a different validation error).
type Query struct {
	Lat         string
	Lon         string
	City        string
	CityPresent bool
	Units       string
}

// WeatherService runs the per-request pipeline: validate and resolve the
// location, look up the cache, and on a miss fetch both upstream documents,
// merge them, and store the result before responding.
type WeatherService struct {
	geocoder     client.Geocoder
	weather      client.WeatherFetcher
	cache        cache.Cache
	ttl          time.Duration
	defaultUnits string
	stampede     *stampedeTracker
	now          func() time.Time
}

// NewWeatherService creates a WeatherService with the provided dependencies.
// ttl is the cache freshness window; defaultUnits is used when the request
// omits units or supplies an unrecognized value.
func NewWeatherService(geocoder client.Geocoder, weather client.WeatherFetcher, cache cache.Cache, ttl time.Duration, defaultUnits string) *WeatherService {
	return &WeatherService{
		geocoder:     geocoder,
		weather:      weather,
		cache:        cache,
		ttl:          ttl,
		defaultUnits: strings.ToLower(defaultUnits),
		stampede:     newStampedeTracker(),
		now:          time.Now,
	}
}

// normalizeUnits lowercases the requested unit system and silently falls
// back to the default for anything unrecognized. Never an error.
func (s *WeatherService) normalizeUnits(units string) string {
	switch u := strings.ToLower(units); u {
	case "metric", "imperial", "standard":
		return u
	default:
		return s.defaultUnits
	}
}

// GetWeather serves one request. On a cache hit the stored payload is
// returned with the cached flag set on the copy; the stored value itself
// never carries it. Any upstream failure aborts before combine, so no
// partial payload is ever cached. Racing misses for one key may each fetch
// upstream; the last write wins, which is harmless.
func (s *WeatherService) GetWeather(ctx context.Context, q Query) (models.Payload, error) {
	start := time.Now()
	logger := loggerFromContext(ctx)

	units := s.normalizeUnits(q.Units)
	key, place, err := s.resolve(ctx, q, units)
	if err != nil {
		return models.Payload{}, err
	}

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		if logger != nil {
			logger.Warn("cache get failed", zap.String("key", key.String()), zap.Error(err))
		}
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues(string(key.Kind)).Inc()
		if logger != nil {
			logger.Debug("weather served", zap.String("key", key.String()), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
		}
		cached.Cached = true
		return cached, nil
	}

	observability.CacheMissesTotal.WithLabelValues(string(key.Kind)).Inc()
	if s.stampede.missStarted(key) > 1 {
		observability.CacheStampedeDetectedTotal.Inc()
	}
	defer s.stampede.missFinished(key)

	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.String("key", key.String()))
	}

	current, err := s.weather.CurrentWeather(ctx, place.Lat, place.Lon, units)
	if err != nil {
		return models.Payload{}, fmt.Errorf("fetch current conditions: %w", err)
	}
	forecast, err := s.weather.Forecast(ctx, place.Lat, place.Lon, units)
	if err != nil {
		return models.Payload{}, fmt.Errorf("fetch forecast: %w", err)
	}

	payload := combine(place, current, forecast, units, s.now())

	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		if logger != nil {
			logger.Warn("cache set failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	if logger != nil {
		logger.Debug("weather served", zap.String("key", key.String()), zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	}
	return payload, nil
}

// FetchCity runs the pipeline for a city query with default units, priming
// the cache. Used by the cache warmer.
func (s *WeatherService) FetchCity(ctx context.Context, city string) error {
	_, err := s.GetWeather(ctx, Query{City: city, CityPresent: true})
	return err
}

// loggerFromContext extracts the request-scoped zap.Logger if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}
