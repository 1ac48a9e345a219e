package twilio

import (
	"encoding/json"
	"testing"
)

func TestParseFrameStart(t *testing.T) {
	t.Parallel()
	raw := `{"event":"start","sequenceNumber":"1","start":{"accountSid":"AC1","callSid":"CA9","streamSid":"MZ123","mediaFormat":{"encoding":"audio/x-mulaw","sampleRate":8000,"channels":1}}}`

	f, err := ParseFrame([]byte(raw))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Event != EventStart {
		t.Errorf("Event = %q, want start", f.Event)
	}
	if f.Start == nil || f.Start.StreamSid != "MZ123" {
		t.Fatalf("Start = %+v, want streamSid MZ123", f.Start)
	}
	if f.Start.CallSid != "CA9" {
		t.Errorf("CallSid = %q", f.Start.CallSid)
	}
	if string(f.Raw) != raw {
		t.Error("Raw does not preserve the verbatim payload")
	}
}

func TestParseFrameMedia(t *testing.T) {
	t.Parallel()
	raw := `{"event":"media","media":{"track":"inbound","chunk":"2","timestamp":"5","payload":"AAAA"}}`

	f, err := ParseFrame([]byte(raw))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Event != EventMedia {
		t.Errorf("Event = %q, want media", f.Event)
	}
	if f.Media == nil || f.Media.Payload != "AAAA" {
		t.Fatalf("Media = %+v, want payload AAAA", f.Media)
	}
}

func TestParseFrameUnknownEventIsNotAnError(t *testing.T) {
	t.Parallel()
	f, err := ParseFrame([]byte(`{"event":"mark","mark":{"name":"greeting"}}`))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if f.Event != "mark" {
		t.Errorf("Event = %q, want mark", f.Event)
	}
}

func TestParseFrameRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	if _, err := ParseFrame([]byte(`{"event":`)); err == nil {
		t.Fatal("malformed frame accepted")
	}
}

func TestNewMediaFrameEchoesStreamSid(t *testing.T) {
	t.Parallel()
	frame := NewMediaFrame("MZ777", "AAAA")

	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["event"] != "media" {
		t.Errorf("event = %v, want media", decoded["event"])
	}
	if decoded["streamSid"] != "MZ777" {
		t.Errorf("streamSid = %v, want MZ777", decoded["streamSid"])
	}
	media, ok := decoded["media"].(map[string]any)
	if !ok || media["payload"] != "AAAA" {
		t.Errorf("media = %v, want payload AAAA", decoded["media"])
	}
}
