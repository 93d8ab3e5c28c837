package qstash

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublish(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotRetries string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRetries = r.Header.Get("Upstash-Retries")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messageId":"msg_123"}`))
	}))
	defer srv.Close()

	client := MustNew(Config{URL: srv.URL, Token: "tok", Retries: 2})
	id, err := client.Publish(context.Background(), "https://example.com/hook", map[string]any{"balance": 10.5})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("message id = %q", id)
	}
	if gotPath != "/v2/publish/https://example.com/hook" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" || gotRetries != "2" {
		t.Fatalf("headers auth=%q retries=%q", gotAuth, gotRetries)
	}
	if gotBody["balance"] != 10.5 {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	client := MustNew(Config{URL: srv.URL, Token: "bad"})
	if _, err := client.Publish(context.Background(), "https://example.com/hook", map[string]string{}); !errors.Is(err, ErrPublish) {
		t.Fatalf("Publish() error = %v, want ErrPublish", err)
	}
	if _, err := client.Publish(context.Background(), "not a url", nil); !errors.Is(err, ErrPublish) {
		t.Fatalf("Publish(invalid destination) error = %v, want ErrPublish", err)
	}
}

func TestNewClientValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", Token: "x"}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "https://qstash.upstash.io"}); err == nil {
		t.Fatal("expected error for empty token")
	}
}
