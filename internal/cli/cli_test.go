package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chatgear/internal/cli"
)

// TestParse_ValidArgs validates a fully specified command line.
func TestParse_ValidArgs(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var out bytes.Buffer
	args := []string{
		"--cdp-url", "ws://127.0.0.1:9222",
		"--relay-url", "http://localhost:3100",
		"--data-dir", "/tmp/gear",
		"--log-format", "json",
		"--log-level", "debug",
	}

	// --- Act ---
	cfg, shouldExit, err := cli.Parse(args, &out)

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.CDPURL)
	assert.Equal(t, "http://localhost:3100", cfg.RelayURL)
	assert.Equal(t, "/tmp/gear", cfg.DataDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

// TestParse_NoCDPURL_PrintsUsage validates the clean-exit path when no
// target browser is given.
func TestParse_NoCDPURL_PrintsUsage(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cfg, shouldExit, err := cli.Parse([]string{}, &out)

	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

// TestParse_Help validates that -h is a clean exit, not an error.
func TestParse_Help(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, shouldExit, err := cli.Parse([]string{"-h"}, &out)

	require.NoError(t, err)
	require.True(t, shouldExit)
}

// TestParse_InvalidLogFormat validates rejection with exit code 2.
func TestParse_InvalidLogFormat(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := cli.Parse([]string{"--cdp-url", "ws://x", "--log-format", "xml"}, &out)

	require.Error(t, err)
	exitErr, ok := err.(*cli.ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.Code)
}

// TestParse_InvalidLogLevel validates level validation.
func TestParse_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	_, _, err := cli.Parse([]string{"--cdp-url", "ws://x", "--log-level", "loud"}, &out)

	require.Error(t, err)
	require.IsType(t, &cli.ExitError{}, err)
}

// TestParse_EnvDefaults validates that CHATGEAR_* variables seed the
// defaults and flags still override them.
func TestParse_EnvDefaults(t *testing.T) {
	t.Setenv("CHATGEAR_CDP_URL", "ws://from-env:9222")
	t.Setenv("CHATGEAR_LOG_LEVEL", "warn")

	var out bytes.Buffer
	cfg, shouldExit, err := cli.Parse([]string{"--log-level", "error"}, &out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "ws://from-env:9222", cfg.CDPURL, "env must fill an unset flag")
	assert.Equal(t, "error", cfg.LogLevel, "an explicit flag must beat the env")
}
