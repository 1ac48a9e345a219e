package twilio

import (
	"strings"
	"testing"
)

func TestVoiceResponseRender(t *testing.T) {
	t.Parallel()

	resp := &VoiceResponse{}
	resp.SayText("Hello caller.", "Polly.Matthew")
	resp.PauseFor(1)
	resp.SayText("How can I help?", "Polly.Matthew")
	resp.ConnectStream("wss://relay.example.com/media-stream")

	got, err := resp.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.HasPrefix(got, "<?xml") {
		t.Error("missing XML declaration")
	}
	for _, want := range []string{
		`<Say voice="Polly.Matthew">Hello caller.</Say>`,
		`<Pause length="1">`,
		`<Connect><Stream url="wss://relay.example.com/media-stream">`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("TwiML missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(got, "<Response>") || !strings.Contains(got, "</Response>") {
		t.Errorf("TwiML not wrapped in <Response>:\n%s", got)
	}

	// Verbs must render in insertion order.
	if strings.Index(got, "Hello caller.") > strings.Index(got, "How can I help?") {
		t.Error("verbs rendered out of order")
	}
	if strings.Index(got, "<Pause") > strings.Index(got, "How can I help?") {
		t.Error("pause rendered after the second say")
	}
}

func TestVoiceResponseSayWithoutVoice(t *testing.T) {
	t.Parallel()

	resp := &VoiceResponse{}
	resp.SayText("Plain.", "")

	got, err := resp.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "<Say>Plain.</Say>") {
		t.Errorf("voice attribute should be omitted when empty:\n%s", got)
	}
}

func TestVoiceResponseEscapesText(t *testing.T) {
	t.Parallel()

	resp := &VoiceResponse{}
	resp.SayText("Fish & chips <today>", "")

	got, err := resp.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "Fish &amp; chips &lt;today&gt;") {
		t.Errorf("text not escaped:\n%s", got)
	}
}
