package instance

import (
	"os"
	"strings"
)

// GetID identifies this worker process in cron lock values and logs.
// SAFARIBYTES_WORKER_ID wins, then the hostname.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("SAFARIBYTES_WORKER_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
