package queryengine

import "testing"

func TestIntentFlags(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{
			text: "will it rain tomorrow",
			want: Intent{Rain: true},
		},
		{
			text: "how hot is it and how humid",
			want: Intent{Temperature: true, Humidity: true},
		},
		{
			text: "any storm warnings this weekend",
			want: Intent{Rain: true, Storm: true, Alert: true, Forecast: true},
		},
		{
			text: "wind conditions in Oslo",
			want: Intent{Wind: true, Climate: true},
		},
		{
			text: "hello there",
			want: Intent{},
		},
	}
	for _, tt := range tests {
		if got := IntentFlags(tt.text); got != tt.want {
			t.Errorf("IntentFlags(%q) = %+v, want %+v", tt.text, got, tt.want)
		}
	}
}

func TestIntentAny(t *testing.T) {
	if (Intent{}).Any() {
		t.Error("empty intent must report Any() == false")
	}
	if !(Intent{Forecast: true}).Any() {
		t.Error("single flag must report Any() == true")
	}
}

func TestLooksLikeWeatherQuery(t *testing.T) {
	if !LooksLikeWeatherQuery("What's the WEATHER like?") {
		t.Error("expected weather query to be recognized")
	}
	if LooksLikeWeatherQuery("book me a flight") {
		t.Error("non-weather text must not match")
	}
}

func TestStormDescription(t *testing.T) {
	if !StormDescription("scattered thunderstorms") {
		t.Error("thunderstorm description must flag storm")
	}
	if StormDescription("clear sky") {
		t.Error("clear sky must not flag storm")
	}
}
