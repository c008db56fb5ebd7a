package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionConfig holds the Mycodo versions this analyzer is built against
type VersionConfig struct {
	CurrentStable string
	MinSupported  string
	Deprecated    string
}

var DefaultVersionConfig = VersionConfig{
	CurrentStable: "8.16.2", // Latest Mycodo release the export format was verified against
	MinSupported:  "8.10.0", // Oldest release with the measurement export layout we read
	Deprecated:    "8.5.0",  // Below this the export layout differs
}

// CheckVersionStatus classifies a Mycodo install version against the
// supported range
func CheckVersionStatus(mycodoVersion string, config *VersionConfig) (status string, needsUpgrade bool, severity string) {
	if config == nil {
		config = &DefaultVersionConfig
	}

	// Clean version string (remove 'v' prefix if present)
	mycodoVersion = strings.TrimPrefix(mycodoVersion, "v")

	ver, err := version.NewVersion(mycodoVersion)
	if err != nil {
		return "unknown", false, "info"
	}

	current, _ := version.NewVersion(config.CurrentStable)
	minSupported, _ := version.NewVersion(config.MinSupported)
	deprecated, _ := version.NewVersion(config.Deprecated)

	// Check if deprecated (critical)
	if ver.LessThan(deprecated) {
		return "deprecated", true, "critical"
	}

	// Check if below minimum supported (warning)
	if ver.LessThan(minSupported) {
		return "outdated", true, "warning"
	}

	// Check if not on latest verified stable (info)
	if ver.LessThan(current) {
		return "outdated", true, "info"
	}

	// On latest or newer
	return "current", false, "none"
}

// GetUpgradeMessage returns a human-readable compatibility message
func GetUpgradeMessage(mycodoVersion string, config *VersionConfig) string {
	if config == nil {
		config = &DefaultVersionConfig
	}

	_, needsUpgrade, severity := CheckVersionStatus(mycodoVersion, config)

	if !needsUpgrade {
		return ""
	}

	switch severity {
	case "critical":
		return "CRITICAL: This Mycodo version predates the supported export format. Upgrade to " + config.CurrentStable + " before relying on analysis results."
	case "warning":
		return "WARNING: This Mycodo version is older than the supported range. Please upgrade to " + config.CurrentStable + " soon."
	case "info":
		return "INFO: Analyzer was verified against Mycodo " + config.CurrentStable + "."
	}

	return ""
}
