package models

import "encoding/json"

// KeyKind distinguishes how a location was specified by the caller.
type KeyKind string

const (
	KindCity   KeyKind = "city"
	KindCoords KeyKind = "coords"
)

// CacheKey identifies one cached payload. Two requests share an entry only
// when kind, locator, and units are all equal; the locator is the trimmed
// original query text for city lookups (case preserved) or "lat,lon" built
// from the parsed coordinate values.
type CacheKey struct {
	Kind    KeyKind
	Locator string
	Units   string
}

// String renders the key for logs and metrics. Not used for equality.
func (k CacheKey) String() string {
	return string(k.Kind) + ":" + k.Locator + ":" + k.Units
}

// Place is the resolved location a payload was fetched for. Name is nil for
// coordinate queries, which never touch the geocoder. Immutable once built.
type Place struct {
	Name    *string `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country *string `json:"country,omitempty"`
	State   *string `json:"state,omitempty"`
}

// Payload is the merged response served to clients and stored in the cache.
// Cached is set on the copy returned for a cache hit, never on the stored
// value itself.
type Payload struct {
	Place     Place        `json:"place"`
	Units     string       `json:"units"`
	FetchedAt int64        `json:"fetched_at"`
	Current   Current      `json:"current"`
	Forecast  ForecastPart `json:"forecast"`
	Cached    bool         `json:"cached,omitempty"`
}

// Current holds the normalized current-conditions block. Pointer fields
// serialize as null when the provider omitted them. Weather keeps the
// provider's full condition array because clients index into weather[0].
type Current struct {
	Dt         *int64          `json:"dt"`
	Temp       *float64        `json:"temp"`
	FeelsLike  *float64        `json:"feels_like"`
	Humidity   *float64        `json:"humidity"`
	Pressure   *float64        `json:"pressure"`
	WindSpeed  *float64        `json:"wind_speed"`
	WindDeg    *float64        `json:"wind_deg"`
	Clouds     *float64        `json:"clouds"`
	Weather    json.RawMessage `json:"weather"`
	Visibility *float64        `json:"visibility"`
	Sunrise    *int64          `json:"sunrise"`
	Sunset     *int64          `json:"sunset"`
}

// ForecastPart carries the provider's forecast city metadata and entry list
// verbatim, defaulting to {} and [] when absent upstream.
type ForecastPart struct {
	City json.RawMessage `json:"city"`
	List json.RawMessage `json:"list"`
}
