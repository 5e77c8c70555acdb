package weather

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hrygo/weathersense/server/queryengine"
)

// toolInputPayload is the JSON shape an LLM may pass as tool input.
// Plain-text input is used as the query directly.
type toolInputPayload struct {
	Query         string `json:"query"`
	Message       string `json:"message"`
	Question      string `json:"question"`
	Location      string `json:"location"`
	City          string `json:"city"`
	Date          string `json:"date"`
	TimeReference string `json:"time_reference"`
}

// ParseToolInput normalizes raw tool input into a query string plus optional
// location and date hints. Hints absent from the query text are appended to
// it so time and city resolution see them.
func ParseToolInput(toolInput string) (query, locationHint, dateHint string) {
	raw := strings.TrimSpace(toolInput)
	query = raw

	var payload toolInputPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		locationHint = strings.TrimSpace(firstNonEmpty(payload.Location, payload.City))
		dateHint = strings.TrimSpace(firstNonEmpty(payload.Date, payload.TimeReference))
		if value := strings.TrimSpace(firstNonEmpty(payload.Query, payload.Message, payload.Question)); value != "" {
			query = value
		}
	}

	if locationHint != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(locationHint)) {
		query = strings.TrimSpace(query + " in " + locationHint)
	}
	if dateHint != "" {
		query = strings.TrimSpace(query + " " + dateHint)
	}
	return query, locationHint, dateHint
}

// Fetch resolves the city and time scope from tool input, calls the upstream
// endpoints and assembles the structured payload. It never returns an error;
// failures are encoded in the payload status.
func (c *Client) Fetch(ctx context.Context, toolInput string, now time.Time) *Payload {
	query, locationHint, _ := ParseToolInput(toolInput)
	if !queryengine.LooksLikeWeatherQuery(query) {
		query = strings.TrimSpace("weather " + query)
	}

	if c.APIKey == "" {
		return &Payload{
			Status:  StatusServiceUnavailable,
			Message: LiveDataUnavailable,
		}
	}

	cityName := ""
	if locationHint != "" {
		cityName = queryengine.ExtractCityName(locationHint)
	}
	if cityName == "" {
		cityName = queryengine.InferCity(query)
	}
	if cityName == "" {
		return &Payload{
			Status:  StatusNeedsLocation,
			Message: NeedsLocationMessage,
		}
	}

	cityName = queryengine.SanitizeCityCandidate(cityName)
	if queryengine.CityAmbiguous(cityName) {
		return &Payload{
			Status:   StatusAmbiguousLocation,
			Message:  "Please clarify the location: '" + cityName + "'.",
			Location: cityName,
		}
	}

	timeRef := queryengine.ResolveTimeReference(query, now)

	current, err := c.fetchCurrent(ctx, cityName)
	if err != nil {
		return unavailablePayload(cityName)
	}
	forecast, err := c.fetchForecast(ctx, cityName)
	if err != nil {
		return unavailablePayload(cityName)
	}

	conditions := buildCurrentConditions(current)
	if conditions == nil {
		return unavailablePayload(cityName)
	}

	hourly, timezoneShift := buildHourlyEntries(forecast)
	daily := buildDailyEntries(hourly)

	selectedHourly := filterHourlyByDate(hourly, timeRef.StartDate, timeRef.EndDate)
	selectedDaily := filterDailyByDate(daily, timeRef.StartDate, timeRef.EndDate)
	if len(selectedHourly) == 0 && len(hourly) > 0 {
		selectedHourly = hourly[:minInt(MaxHourlyPoints, len(hourly))]
	}
	if len(selectedDaily) == 0 && len(daily) > 0 {
		selectedDaily = daily[:minInt(MaxDailyPoints, len(daily))]
	}

	rainProbability := maxPrecipProbability(selectedHourly, selectedDaily)

	stormPeriods := make([]string, 0)
	for _, point := range selectedHourly {
		if point.StormPossible {
			stormPeriods = append(stormPeriods, point.LocalTime)
		}
	}
	if len(stormPeriods) == 0 {
		for _, point := range selectedDaily {
			if point.StormPossible {
				stormPeriods = append(stormPeriods, point.Date)
			}
		}
	}

	// Alert lookup is best effort; a one-call failure never degrades the
	// payload below StatusOK.
	alerts := make([]Alert, 0)
	if current.Coord.Lat != nil && current.Coord.Lon != nil {
		if fetched, err := c.fetchAlerts(ctx, *current.Coord.Lat, *current.Coord.Lon); err == nil {
			alerts = fetched
		}
	}

	location := current.Name
	if strings.TrimSpace(location) == "" {
		location = cityName
	}

	return &Payload{
		Status:   StatusOK,
		Source:   "openweather",
		Location: location,
		Query:    query,
		TimeScope: &TimeScope{
			TimeReference:        timeRef,
			TimezoneShiftSeconds: timezoneShift,
		},
		Current:                conditions,
		RainProbabilityPercent: rainProbability,
		HourlyForecast:         capHourly(selectedHourly),
		DailyForecast:          capDaily(selectedDaily),
		StormPossible:          len(stormPeriods) > 0,
		StormPeriods:           capStrings(stormPeriods, MaxHourlyPoints),
		SevereAlerts:           alerts,
	}
}

// buildCurrentConditions extracts the observation fields; nil when the body
// is missing temperature or humidity.
func buildCurrentConditions(current *owCurrentResponse) *CurrentConditions {
	if current == nil || current.Main.Temp == nil || current.Main.Humidity == nil {
		return nil
	}

	conditions := &CurrentConditions{
		TemperatureC: roundTo1(*current.Main.Temp),
		Description:  strings.TrimSpace(conditionDescription(current.Weather)),
	}
	humidity := int(*current.Main.Humidity)
	conditions.HumidityPercent = &humidity
	if current.Wind.Speed != nil {
		conditions.WindSpeedMps = roundTo1(*current.Wind.Speed)
	}
	if current.Wind.Deg != nil {
		deg := *current.Wind.Deg
		conditions.WindDeg = &deg
		conditions.WindDirection = windDirectionLabel(deg)
	}
	return conditions
}

// maxPrecipProbability takes the hourly maximum, falling back to the daily
// series when no hourly point carries a probability.
func maxPrecipProbability(hourly []HourlyPoint, daily []DailyPoint) *int {
	var best *int
	for _, point := range hourly {
		if point.PrecipProbabilityPercent == nil {
			continue
		}
		if best == nil || *point.PrecipProbabilityPercent > *best {
			value := *point.PrecipProbabilityPercent
			best = &value
		}
	}
	if best != nil {
		return best
	}
	for _, point := range daily {
		if point.PrecipProbabilityPercent == nil {
			continue
		}
		if best == nil || *point.PrecipProbabilityPercent > *best {
			value := *point.PrecipProbabilityPercent
			best = &value
		}
	}
	return best
}

func unavailablePayload(location string) *Payload {
	return &Payload{
		Status:   StatusServiceUnavailable,
		Message:  LiveDataUnavailable,
		Location: location,
	}
}

func capHourly(points []HourlyPoint) []HourlyPoint {
	if len(points) > MaxHourlyPoints {
		return points[:MaxHourlyPoints]
	}
	return points
}

func capDaily(points []DailyPoint) []DailyPoint {
	if len(points) > MaxDailyPoints {
		return points[:MaxDailyPoints]
	}
	return points
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
