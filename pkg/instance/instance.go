package instance

import (
	"os"
	"strings"
)

const fallbackID = "local"

// ID identifies this process in logs and lock ownership. It prefers
// SHAREMEAL_INSTANCE_ID, then the platform-provided DYNO, then the hostname.
func ID() string {
	for _, key := range []string{"SHAREMEAL_INSTANCE_ID", "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
