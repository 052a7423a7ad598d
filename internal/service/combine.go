package service

import (
	"encoding/json"
	"time"

	"github.com/wxproxy/weather-proxy/internal/models"
	"github.com/wxproxy/weather-proxy/internal/owm"
)

var (
	emptyObject = json.RawMessage("{}")
	emptyArray  = json.RawMessage("[]")
)

// combine merges the two upstream documents into the unified payload. Pure
// and total: absent upstream fields stay nil and serialize as null, the
// condition array and forecast blocks default to empty. fetchedAt anchors
// the entry's freshness, not any provider-supplied timestamp.
func combine(place models.Place, current owm.CurrentDocument, forecast owm.ForecastDocument, units string, fetchedAt time.Time) models.Payload {
	weather := current.Weather
	if weather == nil {
		weather = emptyArray
	}
	city := forecast.City
	if city == nil {
		city = emptyObject
	}
	entries := forecast.List
	if entries == nil {
		entries = emptyArray
	}

	return models.Payload{
		Place:     place,
		Units:     units,
		FetchedAt: fetchedAt.Unix(),
		Current: models.Current{
			Dt:         current.Dt,
			Temp:       current.Main.Temp,
			FeelsLike:  current.Main.FeelsLike,
			Humidity:   current.Main.Humidity,
			Pressure:   current.Main.Pressure,
			WindSpeed:  current.Wind.Speed,
			WindDeg:    current.Wind.Deg,
			Clouds:     current.Clouds.All,
			Weather:    weather,
			Visibility: current.Visibility,
			Sunrise:    current.Sys.Sunrise,
			Sunset:     current.Sys.Sunset,
		},
		Forecast: models.ForecastPart{
			City: city,
			List: entries,
		},
	}
}
