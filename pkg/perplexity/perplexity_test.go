package perplexity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kelseyhightower/envconfig"
	openaisdk "github.com/openai/openai-go"
)

func TestNewClientWithoutKey(t *testing.T) {
	t.Parallel()

	if c := NewClient(Config{APIKey: "  "}); c != nil {
		t.Fatal("NewClient() without key should be nil")
	}
}

func TestDefaultsDoNotRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"message":"busy"}}`)
	}))
	t.Cleanup(server.Close)

	var cfg Config
	if err := envconfig.Process("PERPLEXITY_DEFAULTS_TEST", &cfg); err != nil {
		t.Fatalf("envconfig.Process() error = %v", err)
	}
	if cfg.MaxRetries != 0 || cfg.Model != DefaultModel {
		t.Fatalf("defaults = %+v", cfg)
	}
	cfg.APIKey = "k"
	cfg.BaseURL = server.URL

	client := NewClient(cfg)
	_, err := client.Chat.Completions.New(context.Background(), openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(cfg.Model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{openaisdk.UserMessage("hola")},
	})
	if err == nil {
		t.Fatal("expected error from failing server")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("server hits = %d, want 1", got)
	}
}
