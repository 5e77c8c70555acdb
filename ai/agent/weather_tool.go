package agent

import (
	"context"
	"time"

	"github.com/hrygo/weathersense/ai/llm"
	"github.com/hrygo/weathersense/plugin/weather"
)

// WeatherToolName is the function name the generative source must call.
const WeatherToolName = "get_weather_forecast"

// Fetcher resolves tool input into a weather payload. *weather.Client is the
// production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, toolInput string, now time.Time) *weather.Payload
}

const weatherToolSchema = `{
	"type": "object",
	"properties": {
		"query": {
			"type": "string",
			"description": "The full user request so location and time can be extracted."
		},
		"location": {
			"type": "string",
			"description": "City name, when already known."
		},
		"date": {
			"type": "string",
			"description": "Optional time reference such as 'tomorrow' or an ISO date."
		}
	},
	"required": ["query"]
}`

// WeatherToolDescriptor describes the weather tool for function calling.
func WeatherToolDescriptor() llm.ToolDescriptor {
	return llm.ToolDescriptor{
		Name: WeatherToolName,
		Description: "Mandatory weather tool. Always call this tool once before answering any weather question. " +
			"Input must carry the full user request so location/time can be extracted. " +
			"Output is JSON with current weather, hourly/daily forecast, rain probability, storms, and alerts.",
		Parameters: weatherToolSchema,
	}
}
