// Package agent orchestrates weather question answering: it drives the
// generative source, falls back to a deterministic retry loop against the
// weather provider, gates untrusted generated text and shapes the final
// answer per persona.
package agent

import (
	"sort"
	"strings"

	"github.com/hrygo/weathersense/store"
)

// Persona is a named bundle of tone and style rules applied to final text.
type Persona struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Identity   string   `json:"identity"`
	Tone       string   `json:"tone"`
	Vocabulary string   `json:"vocabulary"`
	HumorStyle string   `json:"humor_style"`
	RiskStance string   `json:"risk_stance"`
	StyleRules []string `json:"style_rules,omitempty"`
}

// personas is an immutable catalog loaded once at process start.
var personas = map[string]Persona{
	"professional": {
		ID:         "professional",
		Name:       "Professional Assistant",
		Identity:   "Professional AI weather assistant",
		Tone:       "concise and factual",
		Vocabulary: "precise, technical where needed",
		HumorStyle: "none",
		RiskStance: "balanced",
		StyleRules: []string{
			"Answer the question directly in the first sentence.",
			"Always include the key weather numbers.",
		},
	},
	"friendly": {
		ID:         "friendly",
		Name:       "Friendly Guide",
		Identity:   "A warm weather companion",
		Tone:       "supportive and easy to understand",
		Vocabulary: "plain and approachable",
		HumorStyle: "light",
		RiskStance: "balanced",
		StyleRules: []string{
			"Use simple language.",
			"Keep the flow natural.",
			"Still include key weather numbers.",
		},
	},
	"safety": {
		ID:         "safety",
		Name:       "Safety Briefer",
		Identity:   "A cautious severe-weather briefer",
		Tone:       "calm and directive",
		Vocabulary: "plain, action oriented",
		HumorStyle: "none",
		RiskStance: "cautious",
		StyleRules: []string{
			"Lead with any risk to people or property.",
			"State one concrete protective action when risk exists.",
		},
	},
}

// riskKeywords trigger the safety persona's action note.
var riskKeywords = []string{"storm", "thunderstorm", "alert", "warning", "severe", "cyclone", "hurricane", "tornado", "flood"}

// ResolvePersona returns the persona for the id, falling back to the default
// persona on blank or unknown ids.
func ResolvePersona(personaID string) Persona {
	key := strings.ToLower(strings.TrimSpace(personaID))
	if persona, ok := personas[key]; ok {
		return persona
	}
	return personas[store.DefaultPersonaID]
}

// ListPersonas returns the catalog ordered by id.
func ListPersonas() []Persona {
	listed := make([]Persona, 0, len(personas))
	for _, persona := range personas {
		listed = append(listed, persona)
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].ID < listed[j].ID })
	return listed
}

// InstructionBlock renders the persona policy for the generative prompt.
func (p Persona) InstructionBlock(responseStyle store.ResponseStyle) string {
	lines := []string{
		"Persona policy:",
		"- Identity: " + p.Identity,
		"- Tone: " + p.Tone,
		"- Vocabulary: " + p.Vocabulary,
		"- Humor style: " + p.HumorStyle,
		"- Risk stance: " + p.RiskStance,
		"- Response style: " + string(responseStyle),
	}
	if len(p.StyleRules) > 0 {
		lines = append(lines, "- Response rules: "+strings.Join(p.StyleRules, "; "))
	}
	lines = append(lines, "- Do not expose internal reasoning trace to the user.")
	return strings.Join(lines, "\n")
}

// ApplyStyle reshapes a candidate answer per persona and verbosity level.
// Not idempotent: repeated application may double the safety prefix, so it
// runs exactly once per turn.
func ApplyStyle(text string, persona Persona, style store.ResponseStyle, contextNote string) string {
	payload := strings.TrimSpace(text)
	if payload == "" {
		return payload
	}

	if style != store.StyleBalanced && style != store.StyleDetailed {
		payload = clipFirstSentence(payload)
	}

	switch persona.ID {
	case "friendly":
		payload = conversationalRewrite(payload)
	case "safety":
		payload = "Safety briefing: " + payload
		if containsRiskKeyword(payload) {
			payload += " Review local guidance before heading out."
		}
	}

	if style == store.StyleDetailed && strings.TrimSpace(contextNote) != "" {
		payload = payload + " Context used: " + strings.TrimSpace(contextNote)
	}
	return strings.TrimSpace(payload)
}

// clipFirstSentence cuts at the first sentence terminator. A period between
// two digits is a decimal point, not a boundary.
func clipFirstSentence(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if r == '.' && i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
			continue
		}
		clipped := strings.TrimSpace(string(runes[:i+1]))
		if clipped == "" {
			return text
		}
		return clipped
	}
	return text
}

// conversationalRewrite softens the synthesizer's stock conditions sentence.
func conversationalRewrite(text string) string {
	const prefix = "Current conditions in "
	if !strings.HasPrefix(text, prefix) {
		return text
	}
	rest := strings.TrimPrefix(text, prefix)
	location, description, found := strings.Cut(rest, ":")
	if !found {
		return text
	}
	description = strings.TrimSuffix(strings.TrimSpace(description), ".")
	return "It looks like the weather in " + location + " is currently showing " + description + "."
}

func containsRiskKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range riskKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
