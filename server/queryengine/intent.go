package queryengine

import "strings"

// Intent is the set of weather topics a query asks about. Flags are
// independent; a query may request several topics at once.
type Intent struct {
	Rain        bool
	Temperature bool
	Humidity    bool
	Wind        bool
	Storm       bool
	Alert       bool
	Forecast    bool
	Climate     bool
}

var (
	weatherQueryMarkers = []string{
		"weather", "forecast", "temperature", "rain", "humidity",
		"wind", "storm", "alert", "climate",
	}

	rainMarkers        = []string{"rain", "drizzle", "shower", "thunderstorm", "storm", "precipitation"}
	temperatureMarkers = []string{"temperature", "temp", "hot", "cold", "warm", "cool"}
	humidityMarkers    = []string{"humidity", "humid"}
	windMarkers        = []string{"wind", "breeze", "gust"}
	stormMarkers       = []string{"storm", "thunderstorm", "cyclone", "hurricane", "tornado"}
	alertMarkers       = []string{"alert", "warning", "advisory", "severe"}
	forecastMarkers    = []string{
		"forecast", "future", "upcoming", "hourly", "daily",
		"weekend", "this week", "next 3 days", "next few days",
	}
	climateMarkers = []string{"climate", "condition", "conditions", "overall"}
)

// IntentFlags derives topic flags from the query text. When nothing matches,
// all flags are false; downstream consumers fall back to a general-conditions
// answer.
func IntentFlags(text string) Intent {
	lowered := strings.ToLower(text)
	return Intent{
		Rain:        containsAny(lowered, rainMarkers),
		Temperature: containsAny(lowered, temperatureMarkers),
		Humidity:    containsAny(lowered, humidityMarkers),
		Wind:        containsAny(lowered, windMarkers),
		Storm:       containsAny(lowered, stormMarkers),
		Alert:       containsAny(lowered, alertMarkers),
		Forecast:    containsAny(lowered, forecastMarkers),
		Climate:     containsAny(lowered, climateMarkers),
	}
}

// Any reports whether at least one topic flag is set.
func (i Intent) Any() bool {
	return i.Rain || i.Temperature || i.Humidity || i.Wind ||
		i.Storm || i.Alert || i.Forecast || i.Climate
}

// LooksLikeWeatherQuery reports whether the text mentions any weather topic.
func LooksLikeWeatherQuery(text string) bool {
	return containsAny(strings.ToLower(text), weatherQueryMarkers)
}

// StormDescription reports whether a condition description names a storm.
func StormDescription(description string) bool {
	return containsAny(strings.ToLower(description), stormMarkers)
}

func containsAny(lowered string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
