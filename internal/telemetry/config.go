package telemetry

import (
	"os"
	"strings"
)

const defaultArtifactsDir = ".agent"

var observeEnabled bool

func init() {
	// Read once at process start. Mid-run environment changes have no effect
	// except the explicit test override in ObserveEnabled.
	observeEnabled = os.Getenv("AGT_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether audit JSONL emission is on.
func ObserveEnabled() bool {
	if v, ok := os.LookupEnv("AGT_OBSERVE_JSON"); ok {
		return v == "1"
	}
	return observeEnabled
}

// ArtifactsDir is where events.jsonl is written. Defaults to .agent.
func ArtifactsDir() string {
	if v := strings.TrimSpace(os.Getenv("AGT_ARTIFACTS_DIR")); v != "" {
		return v
	}
	return defaultArtifactsDir
}
