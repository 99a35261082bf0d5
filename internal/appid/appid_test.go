package appid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsIndependentCopies(t *testing.T) {
	first, err := Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "qualitylens", first.BinaryName)
	require.Equal(t, "QUALITYLENS_", first.EnvPrefix)

	first.BinaryName = "mutated"
	second, err := Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "qualitylens", second.BinaryName)
}

func TestEnvVarAndNamespace(t *testing.T) {
	require.Equal(t, "QUALITYLENS_ADMIN_TOKEN", EnvVar("admin_token"))
	require.Equal(t, "qualitylens", TelemetryNamespace())
}
