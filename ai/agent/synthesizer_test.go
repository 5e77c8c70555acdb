package agent

import (
	"strings"
	"testing"

	"github.com/hrygo/weathersense/plugin/weather"
	"github.com/hrygo/weathersense/server/queryengine"
	"github.com/hrygo/weathersense/store"
)

func scopedPayload(location string, kind queryengine.TimeKind) *weather.Payload {
	payload := okPayload(location, 45)
	payload.TimeScope = &weather.TimeScope{
		TimeReference: queryengine.TimeReference{
			Kind:        kind,
			StartDate:   "2025-06-04",
			EndDate:     "2025-06-04",
			Granularity: queryengine.GranularityDaily,
		},
	}
	return payload
}

func TestBuildAnswer_RainThresholds(t *testing.T) {
	tests := []struct {
		probability int
		verdict     string
	}{
		{75, "Rain is likely."},
		{61, "Rain is likely."},
		{60, "There is a chance of rain."},
		{45, "There is a chance of rain."},
		{30, "There is a chance of rain."},
		{29, "Rain is unlikely."},
		{5, "Rain is unlikely."},
	}
	for _, tt := range tests {
		payload := scopedPayload("Paris", queryengine.TimeToday)
		payload.RainProbabilityPercent = &tt.probability

		answer := BuildAnswer("will it rain?", payload, store.UnitsMetric)
		if !strings.HasPrefix(answer, tt.verdict) {
			t.Errorf("probability %d: answer %q, want prefix %q", tt.probability, answer, tt.verdict)
		}
		if !strings.Contains(answer, "45%") && tt.probability == 45 {
			t.Errorf("probability 45: answer %q must cite the percent", answer)
		}
	}
}

func TestBuildAnswer_ChanceOfRainCitesPercent(t *testing.T) {
	payload := scopedPayload("Paris", queryengine.TimeToday)
	answer := BuildAnswer("will it rain today?", payload, store.UnitsMetric)
	want := "There is a chance of rain. Rain probability in Paris for today: 45%."
	if answer != want {
		t.Errorf("answer = %q, want %q", answer, want)
	}
}

func TestBuildAnswer_NonOKStatuses(t *testing.T) {
	needs := &weather.Payload{Status: weather.StatusNeedsLocation}
	if got := BuildAnswer("weather", needs, store.UnitsMetric); got != weather.NeedsLocationMessage {
		t.Errorf("needs_location: %q", got)
	}

	ambiguous := &weather.Payload{
		Status:  weather.StatusAmbiguousLocation,
		Message: "Please clarify the location: 'Georgia or Florida'.",
	}
	if got := BuildAnswer("weather", ambiguous, store.UnitsMetric); got != ambiguous.Message {
		t.Errorf("ambiguous_location: %q", got)
	}

	down := &weather.Payload{Status: weather.StatusServiceUnavailable}
	if got := BuildAnswer("weather", down, store.UnitsMetric); got != weather.LiveDataUnavailable {
		t.Errorf("service_unavailable: %q", got)
	}
}

func TestBuildAnswer_TopicPriority(t *testing.T) {
	payload := scopedPayload("Paris", queryengine.TimeToday)
	payload.StormPossible = true
	payload.StormPeriods = []string{"2025-06-04 18:00"}

	// Rain outranks storm as the primary sentence.
	answer := BuildAnswer("will it rain or storm in Paris?", payload, store.UnitsMetric)
	if !strings.HasPrefix(answer, "There is a chance of rain.") {
		t.Errorf("answer = %q, want rain-led sentence", answer)
	}
	if !strings.Contains(answer, "Storm windows:") {
		t.Errorf("answer = %q, want storm detail appended", answer)
	}
}

func TestBuildAnswer_SecondaryDetails(t *testing.T) {
	payload := scopedPayload("Paris", queryengine.TimeToday)
	answer := BuildAnswer("how hot and humid is it in Paris?", payload, store.UnitsMetric)
	if !strings.HasPrefix(answer, "Current temperature in Paris: 24.5 C.") {
		t.Errorf("answer = %q, want temperature-led sentence", answer)
	}
	if !strings.Contains(answer, "Humidity: 60%.") {
		t.Errorf("answer = %q, want humidity detail", answer)
	}
}

func TestBuildAnswer_ImperialUnits(t *testing.T) {
	payload := scopedPayload("Paris", queryengine.TimeToday)
	answer := BuildAnswer("what is the temperature and wind in Paris?", payload, store.UnitsImperial)
	// 24.5 C -> 76.1 F, 3 m/s -> 6.7 mph.
	if !strings.Contains(answer, "76.1 F") {
		t.Errorf("answer = %q, want Fahrenheit conversion", answer)
	}
	if !strings.Contains(answer, "6.7 mph") {
		t.Errorf("answer = %q, want mph conversion", answer)
	}
}

func TestBuildAnswer_ClimateFallback(t *testing.T) {
	payload := scopedPayload("Paris", queryengine.TimeToday)
	answer := BuildAnswer("hello there", payload, store.UnitsMetric)
	if answer != "Current conditions in Paris: scattered clouds." {
		t.Errorf("answer = %q", answer)
	}
}
