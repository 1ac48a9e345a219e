package twilio

import (
	"encoding/xml"
	"fmt"
)

// VoiceResponse is a TwiML <Response> document answering an inbound call.
// Verbs are rendered in the order they are appended.
type VoiceResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// Say speaks text to the caller using the given TTS voice
// (e.g. "Polly.Matthew").
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Pause waits silently for the given number of seconds.
type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

// Connect hands the call to a bidirectional media stream.
type Connect struct {
	XMLName xml.Name `xml:"Connect"`
	Stream  Stream   `xml:"Stream"`
}

// Stream points Twilio at the relay's media-stream websocket endpoint.
type Stream struct {
	XMLName xml.Name `xml:"Stream"`
	URL     string   `xml:"url,attr"`
}

// SayText appends a <Say> verb.
func (r *VoiceResponse) SayText(text, voice string) *VoiceResponse {
	r.Verbs = append(r.Verbs, Say{Voice: voice, Text: text})
	return r
}

// PauseFor appends a <Pause> verb.
func (r *VoiceResponse) PauseFor(seconds int) *VoiceResponse {
	r.Verbs = append(r.Verbs, Pause{Length: seconds})
	return r
}

// ConnectStream appends a <Connect><Stream> verb pointing at url.
func (r *VoiceResponse) ConnectStream(url string) *VoiceResponse {
	r.Verbs = append(r.Verbs, Connect{Stream: Stream{URL: url}})
	return r
}

// Render serialises the response as a TwiML document including the XML
// declaration Twilio expects.
func (r *VoiceResponse) Render() (string, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("twilio: render twiml: %w", err)
	}
	return xml.Header + string(body), nil
}
