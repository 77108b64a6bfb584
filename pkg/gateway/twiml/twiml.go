// Package twiml renders the telephony markup returned to the voice webhook.
// Only the verbs this service emits are modeled: Play, Say, Gather, Hangup.
package twiml

import (
	"encoding/xml"
	"fmt"
	"time"
)

// Response is the markup document root.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// Say speaks text with the telephony layer's built-in voice.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Play plays a previously rendered audio clip by URL.
type Play struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

// Gather captures the caller's next utterance and posts it back.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Language      string   `xml:"language,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Timeout       int      `xml:"timeout,attr,omitempty"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// MarshalXML renders the verbs in insertion order.
func (r Response) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "Response"}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, verb := range r.Verbs {
		if err := e.Encode(verb); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Render serializes the document with the XML declaration prefix.
func (r Response) Render() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// CaptureOptions configures the Gather verb on a continue document.
type CaptureOptions struct {
	Action        string // webhook URL for the next turn
	Language      string
	SpeechTimeout time.Duration
	Timeout       time.Duration
}

func (o CaptureOptions) gather() Gather {
	g := Gather{
		Input:    "speech",
		Action:   o.Action,
		Method:   "POST",
		Language: o.Language,
	}
	if o.SpeechTimeout > 0 {
		g.SpeechTimeout = fmt.Sprintf("%d", int(o.SpeechTimeout.Seconds()))
	}
	if o.Timeout > 0 {
		g.Timeout = int(o.Timeout.Seconds())
	}
	return g
}

// Continue builds the document that plays the rendered clip and re-opens
// speech capture for the caller's next turn.
func Continue(audioURL string, capture CaptureOptions) Response {
	return Response{Verbs: []any{
		Play{URL: audioURL},
		capture.gather(),
	}}
}

// Terminate builds the document that apologizes and ends the call. The line
// is spoken by the telephony layer itself; no clip exists to play.
func Terminate(apology, language string) Response {
	return Response{Verbs: []any{
		Say{Language: language, Text: apology},
		Hangup{},
	}}
}
