package config

import (
	"testing"
	"time"
)

func TestGetEnvSeconds(t *testing.T) {
	if got := getEnvSeconds("LLM_TIMEOUT_SECONDS"); got != 0 {
		t.Fatalf("unset = %v, want 0", got)
	}

	t.Setenv("LLM_TIMEOUT_SECONDS", "45")
	if got := getEnvSeconds("LLM_TIMEOUT_SECONDS"); got != 45*time.Second {
		t.Fatalf("got %v, want 45s", got)
	}

	t.Setenv("LLM_TIMEOUT_SECONDS", "not-a-number")
	if got := getEnvSeconds("LLM_TIMEOUT_SECONDS"); got != 0 {
		t.Fatalf("invalid = %v, want 0", got)
	}

	t.Setenv("LLM_TIMEOUT_SECONDS", "-3")
	if got := getEnvSeconds("LLM_TIMEOUT_SECONDS"); got != 0 {
		t.Fatalf("negative = %v, want 0", got)
	}
}
