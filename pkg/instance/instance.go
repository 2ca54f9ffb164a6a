package instance

import (
	"os"
	"strings"
)

const envInstanceID = "CENTRIO_INSTANCE_ID"

// GetID returns the process instance identifier used in logs. It falls back
// to the hostname and then to fallback.
func GetID(fallback string) string {
	if id := strings.TrimSpace(os.Getenv(envInstanceID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
