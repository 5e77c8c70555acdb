package agent

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hrygo/weathersense/plugin/weather"
	"github.com/hrygo/weathersense/server/queryengine"
	"github.com/hrygo/weathersense/store"
)

// BuildAnswer deterministically renders a payload into a natural-language
// answer directed by topic flags from the user text. Non-ok statuses map to
// fixed messages.
func BuildAnswer(userInput string, payload *weather.Payload, units store.Units) string {
	if payload == nil {
		return weather.LiveDataUnavailable
	}
	switch payload.Status {
	case weather.StatusNeedsLocation:
		return weather.NeedsLocationMessage
	case weather.StatusAmbiguousLocation:
		if payload.Message != "" {
			return payload.Message
		}
		return "Please clarify the location."
	case weather.StatusOK:
	default:
		return weather.LiveDataUnavailable
	}

	location := payload.Location
	if strings.TrimSpace(location) == "" {
		location = "the requested location"
	}
	timeScope := timeScopeLabel(payload.TimeScope)

	flags := queryengine.IntentFlags(userInput)
	if !flags.Any() {
		flags.Climate = true
	}

	current := payload.Current
	conditionNow := "condition unavailable"
	if current != nil && strings.TrimSpace(current.Description) != "" {
		conditionNow = current.Description
	}

	var dayMin, dayMax *float64
	if len(payload.DailyForecast) > 0 {
		dayMin = payload.DailyForecast[0].TempMinC
		dayMax = payload.DailyForecast[0].TempMaxC
	}

	primary, primaryMetric := primarySentence(flags, payload, location, timeScope, conditionNow, dayMin, dayMax, units)
	details := detailSentences(flags, payload, primaryMetric, conditionNow, dayMin, dayMax, units)

	if len(details) == 0 {
		return primary
	}
	return primary + " " + strings.Join(details, " ")
}

func primarySentence(
	flags queryengine.Intent,
	payload *weather.Payload,
	location, timeScope, conditionNow string,
	dayMin, dayMax *float64,
	units store.Units,
) (string, string) {
	current := payload.Current

	switch {
	case flags.Rain:
		return rainStatement(payload.RainProbabilityPercent, location, timeScope), "rain"

	case flags.Storm:
		if payload.StormPossible {
			return fmt.Sprintf("Storm conditions may occur in %s for %s.", location, timeScope), "storm"
		}
		return fmt.Sprintf("No storm conditions are indicated in %s for %s.", location, timeScope), "storm"

	case flags.Alert:
		if len(payload.SevereAlerts) > 0 {
			return fmt.Sprintf("Severe alert active in %s: %s.", location, payload.SevereAlerts[0].Event), "alert"
		}
		return fmt.Sprintf("No severe weather alerts are currently reported for %s.", location), "alert"

	case flags.Temperature:
		if dayMin != nil && dayMax != nil {
			return fmt.Sprintf("Temperature in %s for %s: %s to %s.",
				location, timeScope, formatTemp(*dayMin, units), formatTemp(*dayMax, units)), "temperature"
		}
		if current != nil && current.TemperatureC != nil {
			return fmt.Sprintf("Current temperature in %s: %s.", location, formatTemp(*current.TemperatureC, units)), "temperature"
		}
		return fmt.Sprintf("Temperature data is unavailable for %s.", location), "temperature"

	case flags.Humidity:
		if current != nil && current.HumidityPercent != nil {
			return fmt.Sprintf("Current humidity in %s: %d%%.", location, *current.HumidityPercent), "humidity"
		}
		return fmt.Sprintf("Humidity data is unavailable for %s.", location), "humidity"

	case flags.Wind:
		if current != nil && current.WindSpeedMps != nil {
			return fmt.Sprintf("Current wind in %s: %s%s.",
				location, formatWind(*current.WindSpeedMps, units), windSuffix(current.WindDirection)), "wind"
		}
		return fmt.Sprintf("Wind data is unavailable for %s.", location), "wind"

	case flags.Forecast:
		if hourlyGranularity(payload) && len(payload.HourlyForecast) > 0 {
			point := payload.HourlyForecast[0]
			return fmt.Sprintf("Hourly forecast for %s %s: %s %s, %s.",
				location, timeScope, point.Time, formatOptionalTemp(point.TemperatureC, units), point.Description), "forecast"
		}
		if len(payload.DailyForecast) > 0 {
			point := payload.DailyForecast[0]
			return fmt.Sprintf("Forecast for %s (%s): %s %s-%s, %s.",
				location, timeScope, point.Date,
				formatOptionalTemp(point.TempMinC, units), formatOptionalTemp(point.TempMaxC, units),
				point.Description), "forecast"
		}
		return fmt.Sprintf("Forecast data is unavailable for %s.", location), "forecast"
	}

	return fmt.Sprintf("Current conditions in %s: %s.", location, conditionNow), "climate"
}

func detailSentences(
	flags queryengine.Intent,
	payload *weather.Payload,
	primaryMetric, conditionNow string,
	dayMin, dayMax *float64,
	units store.Units,
) []string {
	current := payload.Current
	var details []string

	if flags.Temperature && primaryMetric != "temperature" {
		if dayMin != nil && dayMax != nil {
			details = append(details, fmt.Sprintf("Temperature range: %s to %s.", formatTemp(*dayMin, units), formatTemp(*dayMax, units)))
		} else if current != nil && current.TemperatureC != nil {
			details = append(details, fmt.Sprintf("Temperature now: %s.", formatTemp(*current.TemperatureC, units)))
		}
	}
	if flags.Humidity && primaryMetric != "humidity" && current != nil && current.HumidityPercent != nil {
		details = append(details, fmt.Sprintf("Humidity: %d%%.", *current.HumidityPercent))
	}
	if flags.Wind && primaryMetric != "wind" && current != nil && current.WindSpeedMps != nil {
		details = append(details, fmt.Sprintf("Wind: %s%s.", formatWind(*current.WindSpeedMps, units), windSuffix(current.WindDirection)))
	}
	if flags.Rain && primaryMetric != "rain" && payload.RainProbabilityPercent != nil {
		details = append(details, fmt.Sprintf("Rain probability: %d%%.", *payload.RainProbabilityPercent))
	}

	if flags.Forecast {
		if hourlyGranularity(payload) && len(payload.HourlyForecast) > 0 {
			points := make([]string, 0, 3)
			for _, point := range payload.HourlyForecast[:minInt(3, len(payload.HourlyForecast))] {
				points = append(points, fmt.Sprintf("%s: %s, %s, rain %s",
					point.Time, formatOptionalTemp(point.TemperatureC, units), point.Description,
					formatOptionalPercent(point.PrecipProbabilityPercent)))
			}
			details = append(details, "Hourly: "+strings.Join(points, "; ")+".")
		} else if len(payload.DailyForecast) > 0 {
			points := make([]string, 0, 3)
			for _, point := range payload.DailyForecast[:minInt(3, len(payload.DailyForecast))] {
				points = append(points, fmt.Sprintf("%s: %s-%s, %s, rain %s",
					point.Date, formatOptionalTemp(point.TempMinC, units), formatOptionalTemp(point.TempMaxC, units),
					point.Description, formatOptionalPercent(point.PrecipProbabilityPercent)))
			}
			details = append(details, "Daily: "+strings.Join(points, "; ")+".")
		}
	}

	if flags.Storm && payload.StormPossible && len(payload.StormPeriods) > 0 {
		periods := payload.StormPeriods[:minInt(3, len(payload.StormPeriods))]
		details = append(details, "Storm windows: "+strings.Join(periods, ", ")+".")
	}
	if flags.Alert {
		if len(payload.SevereAlerts) > 0 {
			summaries := make([]string, 0, 2)
			for _, alert := range payload.SevereAlerts[:minInt(2, len(payload.SevereAlerts))] {
				start := alert.StartUTC
				if start == "" {
					start = "unknown start"
				}
				summaries = append(summaries, fmt.Sprintf("%s (%s)", alert.Event, start))
			}
			details = append(details, "Alerts: "+strings.Join(summaries, "; ")+".")
		} else {
			details = append(details, "Severe alerts: none currently reported.")
		}
	}

	if flags.Climate && primaryMetric != "climate" && !flags.Forecast {
		details = append(details, fmt.Sprintf("Condition: %s.", conditionNow))
	}
	return details
}

func rainStatement(probability *int, location, timeScope string) string {
	if probability == nil {
		return fmt.Sprintf("Rain probability is unavailable for %s %s.", location, timeScope)
	}
	verdict := "Rain is unlikely."
	switch {
	case *probability > 60:
		verdict = "Rain is likely."
	case *probability >= 30:
		verdict = "There is a chance of rain."
	}
	return fmt.Sprintf("%s Rain probability in %s for %s: %d%%.", verdict, location, timeScope, *probability)
}

// timeScopeLabel names the resolved window for answer text.
func timeScopeLabel(scope *weather.TimeScope) string {
	if scope == nil {
		return "the requested time"
	}
	switch scope.Kind {
	case queryengine.TimeToday:
		return "today"
	case queryengine.TimeTomorrow:
		return "tomorrow"
	}
	if scope.StartDate != "" && scope.EndDate != "" && scope.StartDate != scope.EndDate {
		return scope.StartDate + " to " + scope.EndDate
	}
	if scope.StartDate != "" {
		return scope.StartDate
	}
	return "the requested time"
}

func hourlyGranularity(payload *weather.Payload) bool {
	return payload.TimeScope != nil && payload.TimeScope.Granularity == queryengine.GranularityHourly
}

func formatTemp(celsius float64, units store.Units) string {
	if units == store.UnitsImperial {
		fahrenheit := math.Round((celsius*9/5+32)*10) / 10
		return formatNumber(fahrenheit) + " F"
	}
	return formatNumber(celsius) + " C"
}

func formatOptionalTemp(celsius *float64, units store.Units) string {
	if celsius == nil {
		return "N/A"
	}
	return formatTemp(*celsius, units)
}

func formatWind(metersPerSecond float64, units store.Units) string {
	if units == store.UnitsImperial {
		mph := math.Round(metersPerSecond*2.23694*10) / 10
		return formatNumber(mph) + " mph"
	}
	return formatNumber(metersPerSecond) + " m/s"
}

func formatOptionalPercent(value *int) string {
	if value == nil {
		return "N/A%"
	}
	return strconv.Itoa(*value) + "%"
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func windSuffix(direction string) string {
	if direction == "" {
		return ""
	}
	return " " + direction
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
