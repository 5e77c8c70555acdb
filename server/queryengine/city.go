// Package queryengine extracts location, time scope and topic intent from
// free-text weather questions.
package queryengine

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	cityInTextPattern = regexp.MustCompile(`(?i)\b(?:in|at|for)\s+([A-Za-z][A-Za-z\s.'-]{1,80})`)

	trailingNoisePattern = regexp.MustCompile(`(?i)\b(?:today|tonight|tomorrow|now|please|currently|right now|this\s+week(?:end)?|next\s+week(?:end)?)\b.*$`)

	simpleCityPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z\s.'-]{0,80}$`)

	cityWordPattern = regexp.MustCompile(`[A-Za-z']+`)

	multiSpacePattern = regexp.MustCompile(`\s{2,}`)

	quotedCityFieldPattern = regexp.MustCompile(`"(?:city|location)"\s*:\s*"([^"]+)"`)
)

// Words that disqualify a bare phrase from being read as a city name.
var nonCityQueryWords = map[string]struct{}{
	"what": {}, "how": {}, "can": {}, "could": {}, "would": {}, "should": {},
	"tell": {}, "show": {}, "help": {}, "me": {}, "you": {}, "is": {}, "are": {},
	"the": {}, "weather": {}, "temperature": {}, "humidity": {}, "wind": {},
	"forecast": {}, "today": {}, "tomorrow": {}, "hourly": {}, "daily": {},
	"weekend": {}, "storm": {}, "alert": {}, "chance": {}, "probability": {},
	"there": {}, "be": {},
}

// InferCity extracts a best-effort city name from free text, or "" when no
// candidate survives the heuristics.
func InferCity(text string) string {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return ""
	}

	if match := cityInTextPattern.FindStringSubmatch(raw); match != nil {
		if candidate := SanitizeCityCandidate(match[1]); candidate != "" {
			return candidate
		}
	}

	// No "in/at/for" phrase: accept the whole text as a city only when it is
	// a short run of alphabetic words none of which is a query word.
	candidate := SanitizeCityCandidate(raw)
	if candidate == "" || !simpleCityPattern.MatchString(candidate) {
		return ""
	}
	words := cityWordPattern.FindAllString(candidate, -1)
	if len(words) < 1 || len(words) > 4 {
		return ""
	}
	for _, word := range words {
		if _, bad := nonCityQueryWords[strings.ToLower(word)]; bad {
			return ""
		}
	}
	return candidate
}

// SanitizeCityCandidate strips wrapping quotes, trailing noise words,
// trailing clauses after punctuation, and collapses runs of spaces.
func SanitizeCityCandidate(candidate string) string {
	value := strings.Trim(candidate, "`\"' \n\t")
	if idx := strings.IndexAny(value, "?!;,"); idx >= 0 {
		value = value[:idx]
	}
	value = strings.TrimSpace(value)
	value = trailingNoisePattern.ReplaceAllString(value, "")
	value = strings.Trim(value, "`\"' \n\t")
	return multiSpacePattern.ReplaceAllString(value, " ")
}

// ExtractCityName unwraps a city name from raw tool input which may be plain
// text, a JSON object with a city/location field, or text with an embedded
// JSON fragment.
func ExtractCityName(raw string) string {
	cityName := strings.TrimSpace(raw)
	if cityName == "" {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(cityName), &payload); err == nil {
		if candidate := stringField(payload, "city", "location"); candidate != "" {
			return strings.Trim(candidate, "`\"' \n\t")
		}
	}

	if start, end := strings.Index(cityName, "{"), strings.LastIndex(cityName, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cityName[start:end+1]), &payload); err == nil {
			if candidate := stringField(payload, "city", "location"); candidate != "" {
				cityName = candidate
			}
		}
	}

	if match := quotedCityFieldPattern.FindStringSubmatch(cityName); match != nil {
		cityName = match[1]
	}

	return strings.Trim(cityName, "`\"' \n\t")
}

// CityAmbiguous reports whether a city string names more than one place.
// This is a placeholder policy (substring heuristics), not geocoding.
func CityAmbiguous(city string) bool {
	lowered := strings.ToLower(city)
	return strings.Contains(lowered, " or ") || strings.Contains(lowered, "/")
}

func stringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
