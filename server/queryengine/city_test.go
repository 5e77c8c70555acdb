package queryengine

import "testing"

func TestInferCity_PrepositionPhrase(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"What's the weather in Paris tomorrow?", "Paris"},
		{"weather at New York today", "New York"},
		{"forecast for Chennai, please", "Chennai"},
		{"will it rain in San Francisco this weekend", "San Francisco"},
	}
	for _, tt := range tests {
		if got := InferCity(tt.text); got != tt.want {
			t.Errorf("InferCity(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestInferCity_BareCity(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Paris", "Paris"},
		{"Rio de Janeiro", "Rio de Janeiro"},
		{"Paris today", "Paris"},
		{"  London  ", "London"},
	}
	for _, tt := range tests {
		if got := InferCity(tt.text); got != tt.want {
			t.Errorf("InferCity(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestInferCity_Rejections(t *testing.T) {
	tests := []string{
		"",
		"what is the weather",
		"should I carry an umbrella",
		"tell me something",
		"one two three four five six", // too many words
		"42 degrees",                  // not alphabetic
	}
	for _, text := range tests {
		if got := InferCity(text); got != "" {
			t.Errorf("InferCity(%q) = %q, want empty", text, got)
		}
	}
}

func TestExtractCityName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Paris", "Paris"},
		{`{"city": "Chennai"}`, "Chennai"},
		{`{"location": "Oslo"}`, "Oslo"},
		{`the tool said {"city": "Berlin"} earlier`, "Berlin"},
		{`"city": "Madrid"`, "Madrid"},
		{"`Tokyo`", "Tokyo"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractCityName(tt.raw); got != tt.want {
			t.Errorf("ExtractCityName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCityAmbiguous(t *testing.T) {
	if !CityAmbiguous("Georgia or Florida") {
		t.Error("expected 'Georgia or Florida' to be ambiguous")
	}
	if !CityAmbiguous("Springfield/Shelbyville") {
		t.Error("expected slash-separated city to be ambiguous")
	}
	if CityAmbiguous("Portland") {
		t.Error("Portland should not be ambiguous")
	}
	if CityAmbiguous("Orlando") {
		t.Error("a city containing the letters of 'or' should not be ambiguous")
	}
}
