package agent

import (
	"context"
	"strings"
	"time"

	"github.com/hrygo/weathersense/ai/llm"
	"github.com/hrygo/weathersense/plugin/weather"
	"github.com/hrygo/weathersense/store"
)

// maxGenerativeRounds bounds the tool-calling conversation with the LLM.
const maxGenerativeRounds = 3

const observationPreviewLen = 220

// ToolStep records one claimed tool invocation by the generative source.
type ToolStep struct {
	Tool               string `json:"tool"`
	ToolInput          string `json:"tool_input"`
	Status             string `json:"status"`
	ObservationPreview string `json:"observation_preview"`
}

// GenerativeResult is the outcome of one generative attempt. Err is recorded
// in the trace and never fatal; the deterministic path covers for it.
type GenerativeResult struct {
	Output  string
	Payload *weather.Payload
	Steps   []ToolStep
	Err     string
}

// Generative drives the LLM with the weather tool and collects its output
// plus any structured payload observed through tool execution.
type Generative struct {
	llm     llm.Service
	fetcher Fetcher
}

// NewGenerative wires a generative invoker. A nil service disables the
// generative path entirely.
func NewGenerative(service llm.Service, fetcher Fetcher) *Generative {
	return &Generative{llm: service, fetcher: fetcher}
}

// Enabled reports whether a generative source is configured.
func (g *Generative) Enabled() bool {
	return g != nil && g.llm != nil
}

// PromptInput carries everything that shapes the generative prompt.
type PromptInput struct {
	UserInput      string
	Persona        Persona
	ResponseStyle  store.ResponseStyle
	MemoryCity     string
	Profile        *store.UserProfile
	MemorySnippets []string
}

// ComposePrompt renders persona policy, memory hints and the user request
// into the single user message sent to the LLM.
func ComposePrompt(input PromptInput) string {
	lines := []string{input.Persona.InstructionBlock(input.ResponseStyle)}

	if city := strings.TrimSpace(input.MemoryCity); city != "" {
		lines = append(lines, "Memory hint: preferred_city="+city)
	}
	if input.Profile != nil {
		var items []string
		if input.Profile.PersonaID != "" {
			items = append(items, "persona="+input.Profile.PersonaID)
		}
		if input.Profile.Units != "" {
			items = append(items, "units="+string(input.Profile.Units))
		}
		if input.Profile.ResponseStyle != "" {
			items = append(items, "response_style="+string(input.Profile.ResponseStyle))
		}
		if len(items) > 0 {
			lines = append(lines, "Profile context: "+strings.Join(items, ", "))
		}
	}

	snippets := make([]string, 0, len(input.MemorySnippets))
	for _, snippet := range input.MemorySnippets {
		if trimmed := strings.TrimSpace(snippet); trimmed != "" {
			snippets = append(snippets, trimmed)
		}
	}
	if len(snippets) > 0 {
		if len(snippets) > 6 {
			snippets = snippets[:6]
		}
		lines = append(lines, "Relevant long-term memories: "+strings.Join(snippets, " | "))
	}

	lines = append(lines, "User request: "+strings.TrimSpace(input.UserInput))
	return strings.Join(lines, "\n")
}

// Run executes one generative attempt: the LLM converses with the weather
// tool for a bounded number of rounds; tool observations are fed back and
// recorded. Returns nil when no generative source is configured.
func (g *Generative) Run(ctx context.Context, input PromptInput) *GenerativeResult {
	if !g.Enabled() {
		return nil
	}

	result := &GenerativeResult{}
	messages := []llm.Message{
		llm.SystemPrompt(weatherBotSystemPrompt),
		llm.UserMessage(ComposePrompt(input)),
	}

	for round := 0; round < maxGenerativeRounds; round++ {
		response, _, err := g.llm.ChatWithTools(ctx, messages, []llm.ToolDescriptor{WeatherToolDescriptor()})
		if err != nil {
			result.Err = err.Error()
			return result
		}

		if len(response.ToolCalls) == 0 {
			result.Output = cleanGeneratedText(response.Content)
			return result
		}

		if response.Content != "" {
			messages = append(messages, llm.AssistantMessage(response.Content))
		}
		for _, call := range response.ToolCalls {
			observation, payload := g.runTool(ctx, call)
			if payload != nil {
				result.Payload = payload
			}

			status := "unknown"
			if payload != nil {
				status = string(payload.Status)
			}
			result.Steps = append(result.Steps, ToolStep{
				Tool:               call.Function.Name,
				ToolInput:          call.Function.Arguments,
				Status:             status,
				ObservationPreview: clipRunes(observation, observationPreviewLen),
			})

			messages = append(messages,
				llm.AssistantMessage("Calling tool "+call.Function.Name+" with input: "+call.Function.Arguments),
				llm.UserMessage("Tool "+call.Function.Name+" returned: "+observation+
					"\nAnswer the original request using only this data."),
			)
		}
	}

	return result
}

// runTool executes a claimed tool call. Only the weather tool is real; the
// payload is parsed from its observation so the orchestrator can adopt it.
func (g *Generative) runTool(ctx context.Context, call llm.ToolCall) (string, *weather.Payload) {
	if call.Function.Name != WeatherToolName || g.fetcher == nil {
		return "unknown tool: " + call.Function.Name, nil
	}
	payload := g.fetcher.Fetch(ctx, call.Function.Arguments, time.Now())
	observation := payload.Encode()
	return observation, weather.DecodeToolPayload(observation)
}

// cleanGeneratedText strips markdown emphasis the prompt forbids anyway.
func cleanGeneratedText(text string) string {
	cleaned := strings.ReplaceAll(text, "```", "")
	cleaned = strings.ReplaceAll(cleaned, "**", "")
	return strings.TrimSpace(cleaned)
}

func clipRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
