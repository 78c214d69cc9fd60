package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "AI_PROVIDER", "AI_MODEL", "AI_API_KEY", "MISTRAL_API_KEY", "OPENAI_API_KEY", "VOTE_TIME", "IDLE_ROOM_TIMEOUT", "DEBUG_CONTROLS"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Port != "3001" {
		t.Fatalf("expected default port 3001, got %s", c.Port)
	}
	if c.AIProvider != "openai" || c.AIModel != "open-mixtral-8x7b" {
		t.Fatalf("unexpected ai defaults: %s %s", c.AIProvider, c.AIModel)
	}
	if c.VoteTime != 60*time.Second {
		t.Fatalf("expected 60s vote time, got %v", c.VoteTime)
	}
	if c.IdleRoomTimeout != 10*time.Minute {
		t.Fatalf("expected 10m idle timeout, got %v", c.IdleRoomTimeout)
	}
	if c.DebugControls {
		t.Fatal("debug controls must default off")
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AI_PROVIDER", "OLLAMA")
	t.Setenv("VOTE_TIME", "30")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("DEBUG_CONTROLS", "true")
	t.Setenv("PUBLIC_URL", "https://bot.example/")
	c := FromEnv()
	if c.Port != "9000" || c.AIProvider != "ollama" {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.VoteTime != 30*time.Second || c.GenerationTimeout != 5*time.Second {
		t.Fatalf("durations not applied: %v %v", c.VoteTime, c.GenerationTimeout)
	}
	if !c.DebugControls {
		t.Fatal("DEBUG_CONTROLS=true should enable debug controls")
	}
	if c.PublicURL != "https://bot.example" {
		t.Fatalf("trailing slash should be trimmed, got %s", c.PublicURL)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv("AI_API_KEY", "")
	t.Setenv("MISTRAL_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	if got := FromEnv().AIAPIKey; got != "sk-openai" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", got)
	}
	t.Setenv("MISTRAL_API_KEY", "mistral")
	if got := FromEnv().AIAPIKey; got != "mistral" {
		t.Fatalf("MISTRAL_API_KEY should win over OPENAI_API_KEY, got %q", got)
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("BOTORNOT_TEST_KEY=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOTORNOT_TEST_KEY", "")
	os.Unsetenv("BOTORNOT_TEST_KEY")
	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("BOTORNOT_TEST_KEY"); got != "from-file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
