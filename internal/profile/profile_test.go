package profile

import (
	"os"
	"testing"
)

func clearEnvVars() {
	vars := []string{
		"WEATHERSENSE_LLM_PROVIDER",
		"WEATHERSENSE_LLM_API_KEY",
		"WEATHERSENSE_LLM_BASE_URL",
		"WEATHERSENSE_LLM_MODEL",
		"WEATHERSENSE_LLM_TIMEOUT_SECONDS",
		"WEATHERSENSE_OPENWEATHER_API_KEY",
		"OPENWEATHER_API_KEY",
		"WEATHERSENSE_AGENT_MAX_STEPS",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}

func TestProfileDefaults(t *testing.T) {
	clearEnvVars()

	p := &Profile{}
	p.FromEnv()

	if p.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want openai", p.LLMProvider)
	}
	if p.LLMBaseURL != "https://api.openai.com/v1" {
		t.Errorf("LLMBaseURL = %q, want openai default", p.LLMBaseURL)
	}
	if p.LLMModel == "" {
		t.Error("LLMModel should have a provider default")
	}
	if p.IsLLMEnabled() {
		t.Error("IsLLMEnabled should be false without an API key")
	}
	if p.AgentMaxSteps != 4 {
		t.Errorf("AgentMaxSteps = %d, want 4", p.AgentMaxSteps)
	}
	if p.WeatherTimeout != 10 {
		t.Errorf("WeatherTimeout = %d, want 10", p.WeatherTimeout)
	}
}

func TestProfileUnknownProviderFallsBack(t *testing.T) {
	clearEnvVars()
	os.Setenv("WEATHERSENSE_LLM_PROVIDER", "nonsense")
	defer os.Unsetenv("WEATHERSENSE_LLM_PROVIDER")

	p := &Profile{}
	p.FromEnv()

	if p.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want fallback openai", p.LLMProvider)
	}
}

func TestProfileValidateSQLiteDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if p.DSN == "" {
		t.Error("sqlite DSN should be derived from data dir")
	}
}

func TestProfileValidatePostgresRequiresDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Driver: "postgres", Data: dir}
	if err := p.Validate(); err == nil {
		t.Error("Validate() should fail for postgres without DSN")
	}
}
