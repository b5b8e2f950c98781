package instance

import (
	"os"
	"strings"
)

// GetID returns the process instance identifier used in logs. CARTLEDGER_INSTANCE_ID
// wins over the platform-provided DYNO.
func GetID() string {
	for _, key := range []string{"CARTLEDGER_INSTANCE_ID", "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
