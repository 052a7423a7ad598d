// Package owm decodes OpenWeather response bodies tolerantly. Every field is
// optional: absent or mistyped values decode to nil and are never an error,
// so a malformed upstream body degrades to nulls in the merged payload
// instead of failing the request.
package owm

import "encoding/json"

// GeocodeResult is one entry of the direct-geocoding response list.
type GeocodeResult struct {
	Name    *string `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country *string `json:"country"`
	State   *string `json:"state"`
}

// CurrentDocument is a tolerant view of the current-conditions response.
type CurrentDocument struct {
	Dt   *int64 `json:"dt"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
		Pressure  *float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Weather    json.RawMessage `json:"weather"`
	Visibility *float64        `json:"visibility"`
	Sys        struct {
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
}

// ForecastDocument is a tolerant view of the 5-day/3-hour forecast response.
// City and List stay as raw JSON; the proxy passes them through unmodified.
type ForecastDocument struct {
	City json.RawMessage `json:"city"`
	List json.RawMessage `json:"list"`
}

// DecodeCurrent parses body into a CurrentDocument. Decode failures are
// swallowed; whatever fields did parse are kept and the rest stay nil.
func DecodeCurrent(body []byte) CurrentDocument {
	var doc CurrentDocument
	_ = json.Unmarshal(body, &doc)
	return doc
}

// DecodeForecast parses body into a ForecastDocument, same tolerance rules
// as DecodeCurrent.
func DecodeForecast(body []byte) ForecastDocument {
	var doc ForecastDocument
	_ = json.Unmarshal(body, &doc)
	return doc
}

// errorDocument matches OpenWeather error bodies, which carry the detail in
// either a "message" or an "error" field depending on the endpoint.
type errorDocument struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ErrorMessage extracts the provider's message from an error response body.
// Returns "" when the body is not JSON or carries neither field.
func ErrorMessage(body []byte) string {
	var doc errorDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	if doc.Message != "" {
		return doc.Message
	}
	return doc.Error
}
