// Package weather fetches live conditions, forecasts and alerts from
// OpenWeather and exposes them as a structured tool payload.
package weather

import (
	"encoding/json"
	"strings"

	"github.com/hrygo/weathersense/server/queryengine"
)

// Status classifies the outcome of a fetch.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusNeedsLocation      Status = "needs_location"
	StatusAmbiguousLocation  Status = "ambiguous_location"
	StatusServiceUnavailable Status = "service_unavailable"
)

// LiveDataUnavailable is the user-facing message for upstream failures.
const LiveDataUnavailable = "Live weather data is temporarily unavailable"

// NeedsLocationMessage asks the user to name a city.
const NeedsLocationMessage = "Please specify the location (city) for the weather request."

const (
	// MaxHourlyPoints bounds the hourly series carried in a payload.
	MaxHourlyPoints = 12
	// MaxDailyPoints bounds the daily series carried in a payload.
	MaxDailyPoints = 5
)

// TimeScope is the resolved query window plus the location's UTC offset.
type TimeScope struct {
	queryengine.TimeReference
	TimezoneShiftSeconds int `json:"timezone_shift_seconds"`
}

// CurrentConditions holds the observation from the current-weather endpoint.
type CurrentConditions struct {
	TemperatureC    *float64 `json:"temperature_c"`
	HumidityPercent *int     `json:"humidity_percent"`
	WindSpeedMps    *float64 `json:"wind_speed_mps"`
	WindDeg         *float64 `json:"wind_deg"`
	WindDirection   string   `json:"wind_direction,omitempty"`
	Description     string   `json:"description"`
}

// HourlyPoint is one 3-hour forecast slot in the location's local time.
type HourlyPoint struct {
	Date                     string   `json:"date"`
	Time                     string   `json:"time"`
	LocalTime                string   `json:"local_time"`
	TemperatureC             *float64 `json:"temperature_c"`
	HumidityPercent          *int     `json:"humidity_percent"`
	WindSpeedMps             *float64 `json:"wind_speed_mps"`
	WindDeg                  *float64 `json:"wind_deg"`
	WindDirection            string   `json:"wind_direction,omitempty"`
	PrecipProbabilityPercent *int     `json:"precip_probability_percent"`
	Description              string   `json:"description"`
	StormPossible            bool     `json:"storm_possible"`
}

// DailyPoint aggregates the hourly slots of one local date.
type DailyPoint struct {
	Date                     string   `json:"date"`
	TempMinC                 *float64 `json:"temp_min_c"`
	TempMaxC                 *float64 `json:"temp_max_c"`
	HumidityPercent          *int     `json:"humidity_percent"`
	WindSpeedMps             *float64 `json:"wind_speed_mps"`
	WindDirection            string   `json:"wind_direction,omitempty"`
	PrecipProbabilityPercent *int     `json:"precip_probability_percent"`
	Description              string   `json:"description"`
	StormPossible            bool     `json:"storm_possible"`
}

// Alert is a severe-weather advisory from the one-call endpoint.
type Alert struct {
	Event       string `json:"event"`
	StartUTC    string `json:"start_utc,omitempty"`
	EndUTC      string `json:"end_utc,omitempty"`
	Description string `json:"description"`
}

// Payload is the structured result of a weather fetch. Only StatusOK payloads
// carry data fields; the error statuses carry Message and possibly Location.
type Payload struct {
	Status                 Status             `json:"status"`
	Source                 string             `json:"source,omitempty"`
	Location               string             `json:"location,omitempty"`
	Query                  string             `json:"query,omitempty"`
	TimeScope              *TimeScope         `json:"time_reference,omitempty"`
	Current                *CurrentConditions `json:"current,omitempty"`
	RainProbabilityPercent *int               `json:"rain_probability_percent"`
	HourlyForecast         []HourlyPoint      `json:"hourly_forecast,omitempty"`
	DailyForecast          []DailyPoint       `json:"daily_forecast,omitempty"`
	StormPossible          bool               `json:"storm_possible"`
	StormPeriods           []string           `json:"storm_periods,omitempty"`
	SevereAlerts           []Alert            `json:"severe_alerts"`
	Message                string             `json:"message,omitempty"`
}

// Encode serializes the payload as the tool observation string.
func (p *Payload) Encode() string {
	raw, err := json.Marshal(p)
	if err != nil {
		return `{"status":"service_unavailable","message":"` + LiveDataUnavailable + `"}`
	}
	return string(raw)
}

// DecodeToolPayload parses a tool observation back into a Payload. The raw
// string may be a bare JSON object or prose with an embedded object; nil is
// returned when no object can be recovered.
func DecodeToolPayload(raw string) *Payload {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	var payload Payload
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		return &payload
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil
	}
	return &payload
}

var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// windDirectionLabel maps degrees to an 8-point compass label.
func windDirectionLabel(degrees float64) string {
	deg := degrees
	for deg < 0 {
		deg += 360
	}
	idx := int(deg/45+0.5) % 8
	return compassLabels[idx]
}
