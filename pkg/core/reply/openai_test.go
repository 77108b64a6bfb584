package reply

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core"
	"github.com/mattiabejera90-web/nuovo-baffone-ai/pkg/core/types"
)

func testHistory() []types.Turn {
	return []types.Turn{
		{Role: types.RoleSystem, Text: "Sei Baffone."},
		{Role: types.RoleUser, Text: "Buonasera"},
		{Role: types.RoleAssistant, Text: "Buonasera, come posso aiutarla?"},
		{Role: types.RoleUser, Text: "Vorrei prenotare un tavolo"},
	}
}

func TestOpenAIReplyMapsHistory(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id":"chatcmpl_1",
			"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Certo! Per quante persone?"}}]
		}`)
	}))
	defer server.Close()

	p := NewOpenAI("test-key", "gpt-4o-mini", WithOpenAIBaseURL(server.URL))

	text, err := p.Reply(t.Context(), testHistory())
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if text != "Certo! Per quante persone?" {
		t.Fatalf("text = %q", text)
	}

	if gotPath != "/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth = %q", gotAuth)
	}

	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 4 {
		t.Fatalf("messages = %#v, want 4 entries", gotBody["messages"])
	}
	first := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "Sei Baffone." {
		t.Fatalf("messages[0] = %#v, want persona as system message", first)
	}
	last := messages[3].(map[string]any)
	if last["role"] != "user" || last["content"] != "Vorrei prenotare un tavolo" {
		t.Fatalf("messages[3] = %#v", last)
	}
}

func TestOpenAIReplyErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"type":"rate_limit_error","message":"slow down","code":"rate_limited"}}`)
	}))
	defer server.Close()

	p := NewOpenAI("test-key", "gpt-4o-mini", WithOpenAIBaseURL(server.URL))

	_, err := p.Reply(t.Context(), testHistory())
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		t.Fatalf("error = %v, want *core.Error", err)
	}
	if coreErr.Type != core.ErrGeneration {
		t.Fatalf("type = %s, want %s", coreErr.Type, core.ErrGeneration)
	}
	if coreErr.Code != "rate_limited" {
		t.Fatalf("code = %q", coreErr.Code)
	}
}

func TestOpenAIReplyEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl_1","model":"gpt-4o-mini","choices":[]}`)
	}))
	defer server.Close()

	p := NewOpenAI("test-key", "gpt-4o-mini", WithOpenAIBaseURL(server.URL))

	_, err := p.Reply(t.Context(), testHistory())
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrGeneration {
		t.Fatalf("error = %v, want generation_error", err)
	}
}

func TestOpenAIReplyConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	p := NewOpenAI("test-key", "gpt-4o-mini", WithOpenAIBaseURL(server.URL))

	_, err := p.Reply(t.Context(), testHistory())
	var coreErr *core.Error
	if !errors.As(err, &coreErr) || coreErr.Type != core.ErrGeneration {
		t.Fatalf("error = %v, want generation_error", err)
	}
}
