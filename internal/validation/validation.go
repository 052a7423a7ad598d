package validation

import (
	"errors"
	"strconv"
	"strings"
)

// MaxCityLength is the longest accepted free-text location query.
const MaxCityLength = 100

// Sentinel validation errors. Their messages are the client-facing error
// bodies, so the wording is part of the API contract.
var (
	ErrCoordsNotNumbers = errors.New("lat/lon must be numbers")
	ErrCityEmpty        = errors.New("q (city) must be non-empty")
	ErrCityTooLong      = errors.New("q too long")
	ErrNoLocation       = errors.New("Provide either (lat & lon) or q=<city>")
)

// ParseCoordinates parses raw lat/lon query values as floating point.
// Returns ErrCoordsNotNumbers when either fails to parse.
func ParseCoordinates(lat, lon string) (float64, float64, error) {
	latF, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return 0, 0, ErrCoordsNotNumbers
	}
	lonF, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return 0, 0, ErrCoordsNotNumbers
	}
	return latF, lonF, nil
}

// ValidateCity trims the free-text query and enforces the non-empty and
// length bounds. Case is preserved; the trimmed string doubles as the cache
// key locator.
func ValidateCity(q string) (string, error) {
	s := strings.TrimSpace(q)
	if s == "" {
		return "", ErrCityEmpty
	}
	if len([]rune(s)) > MaxCityLength {
		return "", ErrCityTooLong
	}
	return s, nil
}
