package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Provider string        `split_words:"true" default:"perplexity"`
	Timeout  time.Duration `split_words:"true" default:"30s"`
	APIKey   string        `envconfig:"API_KEY"`
}

func TestNewReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("SAMPLE_PROVIDER=gemini\nSAMPLE_API_KEY=secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFileVar, path)
	t.Setenv("SAMPLE_PROVIDER", "")
	t.Setenv("SAMPLE_API_KEY", "")

	conf, err := New[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Provider != "gemini" || conf.APIKey != "secret" {
		t.Fatalf("unexpected config %+v", conf)
	}
	if conf.Timeout != 30*time.Second {
		t.Fatalf("default timeout not applied: %v", conf.Timeout)
	}
}

func TestNewMissingEnvFile(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))

	if _, err := New[sampleConfig]("SAMPLE"); err == nil {
		t.Fatal("expected error for missing explicit env file")
	}
}
