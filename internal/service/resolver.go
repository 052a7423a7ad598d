package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wxproxy/weather-proxy/internal/models"
	"github.com/wxproxy/weather-proxy/internal/validation"
)

// NotFoundError reports a free-text query with no geocoding match.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No geocode results for '%s'", e.Query)
}

// resolve turns the raw query into a cache key and a Place. Coordinates win
// when both lat and lon are supplied and are parsed without geocoding; the
// synthesized Place has a nil name. Free-text queries are validated, then
// resolved through the geocoder; the cache key uses the trimmed original
// text, so only the geocoding call is spent on a cache miss.
func (s *WeatherService) resolve(ctx context.Context, q Query, units string) (models.CacheKey, models.Place, error) {
	if q.Lat != "" && q.Lon != "" {
		lat, lon, err := validation.ParseCoordinates(q.Lat, q.Lon)
		if err != nil {
			return models.CacheKey{}, models.Place{}, err
		}
		key := models.CacheKey{
			Kind:    models.KindCoords,
			Locator: formatCoords(lat, lon),
			Units:   units,
		}
		return key, models.Place{Name: nil, Lat: lat, Lon: lon}, nil
	}

	if !q.CityPresent {
		return models.CacheKey{}, models.Place{}, validation.ErrNoLocation
	}

	city, err := validation.ValidateCity(q.City)
	if err != nil {
		return models.CacheKey{}, models.Place{}, err
	}

	key := models.CacheKey{Kind: models.KindCity, Locator: city, Units: units}
	place, err := s.geocoder.Geocode(ctx, city)
	if err != nil {
		return models.CacheKey{}, models.Place{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	if place == nil {
		return models.CacheKey{}, models.Place{}, &NotFoundError{Query: city}
	}
	return key, *place, nil
}

// formatCoords builds the coordinate locator from the parsed values, not the
// raw query strings, so "10" and "10.0" share an entry.
func formatCoords(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'g', -1, 64) + "," + strconv.FormatFloat(lon, 'g', -1, 64)
}
