package agent

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hrygo/weathersense/plugin/weather"
)

// maxGenerativeAnswerLen is the verbosity cutoff for generated text.
const maxGenerativeAnswerLen = 520

// failureMarkers are refusal and hedge phrases that disqualify a generated
// answer outright.
var failureMarkers = []string{
	"unable to fetch",
	"technical issue",
	"knowledge cutoff",
	"don't have real-time",
	"do not have real-time",
	"cannot access",
	"can't access",
	"cannot confirm",
	"cannot execute tools",
	"current limitation",
	"check a weather website",
	"provide the data",
	"service unavailable",
}

// AcceptGenerative decides whether generated text may be surfaced instead of
// the deterministic synthesis. Pure conjunction: failing any single check
// rejects the text with no partial merge.
func AcceptGenerative(text string, status weather.Status) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if status != weather.StatusOK {
		return false
	}
	if looksLikeFailure(text) {
		return false
	}
	if looksUnfocused(text) {
		return false
	}
	if looksTooVerbose(text) {
		return false
	}
	return containsDigit(text)
}

func looksLikeFailure(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range failureMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// looksUnfocused flags raw URLs, filler examples and follow-up questions.
func looksUnfocused(text string) bool {
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "http://") || strings.Contains(lowered, "https://") {
		return true
	}
	if strings.Contains(lowered, "for example") {
		return true
	}
	return strings.Contains(lowered, "?") &&
		(strings.Contains(lowered, "do you need") || strings.Contains(lowered, "is"))
}

// looksTooVerbose flags over-long text and bulleted or numbered lists.
// Length is counted in characters, not bytes.
func looksTooVerbose(text string) bool {
	if utf8.RuneCountInString(text) > maxGenerativeAnswerLen {
		return true
	}
	return strings.Contains(text, "\n-") || strings.Contains(text, "\n1.")
}

// containsDigit is a cheap proxy for numeric grounding.
func containsDigit(text string) bool {
	for _, r := range text {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
