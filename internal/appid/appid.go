// Package appid holds the application identity shared by the CLI, config
// loader, logging and telemetry.
package appid

import (
	"context"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
)

// BinaryName is the executable and config directory name.
const BinaryName = "qualitylens"

var identity = appidentity.Identity{
	BinaryName:  BinaryName,
	Vendor:      "astrasemi",
	EnvPrefix:   "QUALITYLENS_",
	ConfigName:  "qualitylens",
	Description: "Quality Risk Insight helper for semiconductor process observations",
}

// Get returns a copy of the application identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	id := identity
	return &id, nil
}

// TelemetryNamespace is the metric namespace derived from the binary name.
func TelemetryNamespace() string {
	return strings.ReplaceAll(identity.BinaryName, "-", "_")
}

// EnvVar returns the prefixed environment variable for name.
func EnvVar(name string) string {
	prefix := identity.EnvPrefix
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix + strings.ToUpper(name)
}
