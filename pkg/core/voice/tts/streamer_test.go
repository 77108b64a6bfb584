package tts

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
)

func TestStreamerAssemblesClip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	chunks := [][]byte{{0x01, 0x02}, {0x03, 0x04, 0x05}}

	var gotTexts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if text, _ := msg["text"].(string); strings.TrimSpace(text) != "" {
				gotTexts = append(gotTexts, strings.TrimSpace(text))
			}
			if flush, _ := msg["flush"].(bool); flush {
				break
			}
		}

		for _, chunk := range chunks {
			_ = conn.WriteJSON(map[string]any{
				"audio": base64.StdEncoding.EncodeToString(chunk),
			})
		}
		_ = conn.WriteJSON(map[string]any{"isFinal": true})
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/text-to-speech/{voice_id}/stream-input"
	s := NewStreamer(NewElevenLabs("xi-key", WithElevenLabsWSBaseURL(wsURL)))

	syn, err := s.Synthesize(t.Context(), "Buonasera! Il tavolo è prenotato.", SynthesizeOptions{
		Voice: "voce-italiana",
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	want := append(append([]byte{}, chunks[0]...), chunks[1]...)
	if string(syn.Audio) != string(want) {
		t.Fatalf("audio = %v, want %v", syn.Audio, want)
	}
	if syn.Format != "mp3" {
		t.Fatalf("format = %q, want mp3", syn.Format)
	}

	// The initial open frame is blank text; the sentences follow in order.
	if !reflect.DeepEqual(gotTexts, []string{"Buonasera!", "Il tavolo è prenotato."}) {
		t.Fatalf("texts = %q", gotTexts)
	}
}

func TestStreamerDialFailureIsSynthesisError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusBadRequest)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/stream-input"
	s := NewStreamer(NewElevenLabs("xi-key", WithElevenLabsWSBaseURL(wsURL)))

	_, err := s.Synthesize(t.Context(), "ciao", SynthesizeOptions{Voice: "v"})
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrSynthesis {
		t.Fatalf("error = %v, want synthesis_error", err)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Buonasera. Come posso aiutarla?", []string{"Buonasera.", "Come posso aiutarla?"}},
		{"Senza terminatore", []string{"Senza terminatore"}},
		{"Certo! A domani.", []string{"Certo!", "A domani."}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitSentences(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitSentences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
