package agent

import (
	"strings"
	"testing"

	"github.com/hrygo/weathersense/store"
)

func TestResolvePersona_DefaultOnMiss(t *testing.T) {
	if got := ResolvePersona("no-such-persona"); got.ID != store.DefaultPersonaID {
		t.Errorf("persona = %q, want default", got.ID)
	}
	if got := ResolvePersona(""); got.ID != store.DefaultPersonaID {
		t.Errorf("blank id: persona = %q, want default", got.ID)
	}
	if got := ResolvePersona("  FRIENDLY "); got.ID != "friendly" {
		t.Errorf("persona = %q, want case-insensitive match", got.ID)
	}
}

func TestListPersonas_StableOrder(t *testing.T) {
	listed := ListPersonas()
	if len(listed) != 3 {
		t.Fatalf("got %d personas, want 3", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if listed[i-1].ID >= listed[i].ID {
			t.Fatalf("personas not ordered by id: %v", listed)
		}
	}
}

func TestApplyStyle_BriefClipsDecimalAware(t *testing.T) {
	persona := ResolvePersona("professional")
	text := "Current temperature in Paris: 24.5 C. Humidity: 60%."

	got := ApplyStyle(text, persona, store.StyleBrief, "")
	want := "Current temperature in Paris: 24.5 C."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApplyStyle_BalancedKeepsEverything(t *testing.T) {
	persona := ResolvePersona("professional")
	text := "First sentence. Second sentence."
	if got := ApplyStyle(text, persona, store.StyleBalanced, ""); got != text {
		t.Errorf("got %q, want unchanged text", got)
	}
}

func TestApplyStyle_FriendlyRewrite(t *testing.T) {
	persona := ResolvePersona("friendly")
	got := ApplyStyle("Current conditions in Paris: scattered clouds.", persona, store.StyleBalanced, "")
	want := "It looks like the weather in Paris is currently showing scattered clouds."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApplyStyle_SafetyPrefixAndActionNote(t *testing.T) {
	persona := ResolvePersona("safety")
	got := ApplyStyle("Storm conditions may occur in Paris for today.", persona, store.StyleBalanced, "")
	if !strings.HasPrefix(got, "Safety briefing: ") {
		t.Errorf("got %q, want safety prefix", got)
	}
	if !strings.Contains(got, "Review local guidance") {
		t.Errorf("got %q, want action note for risk keyword", got)
	}

	calm := ApplyStyle("Current humidity in Paris: 60%.", persona, store.StyleBalanced, "")
	if strings.Contains(calm, "Review local guidance") {
		t.Errorf("got %q, action note must require a risk keyword", calm)
	}
}

func TestInstructionBlock(t *testing.T) {
	block := ResolvePersona("safety").InstructionBlock(store.StyleDetailed)
	for _, want := range []string{
		"- Identity: A cautious severe-weather briefer",
		"- Risk stance: cautious",
		"- Response style: detailed",
		"Lead with any risk to people or property.",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("instruction block missing %q:\n%s", want, block)
		}
	}
}

func TestApplyStyle_DetailedAppendsContext(t *testing.T) {
	persona := ResolvePersona("professional")
	got := ApplyStyle("Rain is unlikely.", persona, store.StyleDetailed, "preferred_city: Chennai")
	if !strings.HasSuffix(got, "Context used: preferred_city: Chennai") {
		t.Errorf("got %q, want context suffix", got)
	}

	// Context is ignored outside the detailed style.
	brief := ApplyStyle("Rain is unlikely.", persona, store.StyleBrief, "preferred_city: Chennai")
	if strings.Contains(brief, "Context used") {
		t.Errorf("got %q, brief style must not carry context", brief)
	}
}
