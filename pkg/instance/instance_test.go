package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("SAFARIBYTES_WORKER_ID", "cron-2")
	if got := GetID(); got != "cron-2" {
		t.Fatalf("expected cron-2, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("SAFARIBYTES_WORKER_ID", " ")
	if got := GetID(); got == "" {
		t.Fatal("expected a non-empty id")
	}
}
