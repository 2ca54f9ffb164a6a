package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(envInstanceID, " api-7 ")
	if got := GetID("local"); got != "api-7" {
		t.Fatalf("expected env instance id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv(envInstanceID, "")
	if got := GetID("local"); got == "" {
		t.Fatalf("expected hostname or fallback, got empty id")
	}
}
