package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChat(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" soup "}}`))
	}))
	defer srv.Close()

	text, err := New(srv.URL).CompleteWithSystem(context.Background(), "llama3", "sys", "p")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "soup" {
		t.Fatalf("expected trimmed content, got %q", text)
	}
	if got["stream"] != false {
		t.Fatalf("streaming must be off, got %v", got["stream"])
	}
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	if _, err := New(srv.URL).Complete(context.Background(), "m", "p"); err == nil {
		t.Fatal("expected error on 500")
	}
}
