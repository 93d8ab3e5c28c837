package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestUpstashRedisStoreRedisKey(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	got, err := store.redisKey("conversations")
	if err != nil {
		t.Fatalf("redisKey() error = %v", err)
	}
	if got != "fincoach:record:conversations" {
		t.Fatalf("redisKey() = %q, want %q", got, "fincoach:record:conversations")
	}
}

func TestUpstashRedisStoreRedisKeyEmptyName(t *testing.T) {
	t.Parallel()

	store := &UpstashRedisStore{}
	_, err := store.redisKey("   ")
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("redisKey() error = %v, want ErrInvalidRecord", err)
	}
}

// fakeUpstash serves GET/SET/DEL from a map, like the REST endpoint.
func fakeUpstash(t *testing.T) (*httptest.Server, func() [][]any) {
	t.Helper()

	var (
		mu       sync.Mutex
		data     = map[string]string{}
		commands [][]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		commands = append(commands, cmd)

		key, _ := cmd[1].(string)
		switch cmd[0] {
		case "GET":
			v, ok := data[key]
			if !ok {
				fmt.Fprint(w, `{"result":null}`)
				return
			}
			encoded, _ := json.Marshal(v)
			fmt.Fprintf(w, `{"result":%s}`, encoded)
		case "SET":
			data[key], _ = cmd[2].(string)
			fmt.Fprint(w, `{"result":"OK"}`)
		case "DEL":
			delete(data, key)
			fmt.Fprint(w, `{"result":1}`)
		default:
			fmt.Fprint(w, `{"error":"ERR unknown command"}`)
		}
	}))
	t.Cleanup(server.Close)

	snapshot := func() [][]any {
		mu.Lock()
		defer mu.Unlock()
		return append([][]any(nil), commands...)
	}
	return server, snapshot
}

func TestUpstashRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	server, _ := fakeUpstash(t)
	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	exerciseRecordStore(t, store)
}

func TestUpstashRedisStoreSaveWithTTL(t *testing.T) {
	t.Parallel()

	server, commands := fakeUpstash(t)
	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "token"},
		WithHTTPClient(server.Client()),
		WithKeyPrefix("test:"),
		WithTTL(1500*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}

	if err := store.Save(context.Background(), RecordUserProfiles, []byte(`{}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := commands()[0]
	if len(got) != 5 {
		t.Fatalf("unexpected command: %#v", got)
	}
	if got[0] != "SET" || got[1] != "test:user_profiles" || got[3] != "EX" {
		t.Fatalf("unexpected command: %#v", got)
	}
	// JSON numbers decode as float64.
	if got[4] != float64(2) {
		t.Fatalf("ttl = %v, want 2 (rounded up)", got[4])
	}
}

func TestUpstashRedisStoreSurfacesErrors(t *testing.T) {
	t.Parallel()

	server, _ := fakeUpstash(t)
	store, err := NewUpstashRedisStore(
		UpstashRedisConfig{URL: server.URL, Token: "wrong"},
		WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore() error = %v", err)
	}
	if _, err := store.Load(context.Background(), RecordConversations); err == nil {
		t.Fatal("expected error for unauthorized request")
	}
}

func TestNewUpstashRedisStoreValidates(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashRedisStore(UpstashRedisConfig{Token: "token"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "https://example.upstash.io", Token: "t"}, WithTTL(-time.Second)); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}
