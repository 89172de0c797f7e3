package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/vk/chatgear/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments, with CHATGEAR_* environment
// variables supplying defaults. It returns a populated Config, a boolean
// indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	// Environment first; explicit flags override.
	defaults := app.Config{
		DataDir:   "chatgear-data",
		LogFormat: "text",
		LogLevel:  "info",
	}
	if err := env.Parse(&defaults); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("chatgear", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
chatgear - productivity feature modules for a chat web app, driven over CDP.

Usage:
  chatgear [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	cdpURLFlag := flagSet.String("cdp-url", defaults.CDPURL, "DevTools URL of the browser showing the chat page, e.g. ws://127.0.0.1:9222.")
	relayURLFlag := flagSet.String("relay-url", defaults.RelayURL, "URL of the settings relay coordinator. Empty runs standalone.")
	profileFlag := flagSet.String("profile", defaults.ProfilePath, "Path to an .hcl site profile. Empty uses built-in defaults.")
	dataDirFlag := flagSet.String("data-dir", defaults.DataDir, "Directory for settings, folders and exports.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if *cdpURLFlag == "" {
		slog.Debug("No CDP URL provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		CDPURL:      *cdpURLFlag,
		RelayURL:    *relayURLFlag,
		ProfilePath: *profileFlag,
		DataDir:     *dataDirFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
