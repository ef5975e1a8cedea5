package report

import (
	"os"
	"strconv"
)

// Terminal width bounds for the summary table.
const (
	defaultWidth = 80
	minWidth     = 60
	maxWidth     = 120
)

// terminalConfig holds rendering settings derived from the environment.
type terminalConfig struct {
	Width   int
	NoColor bool
}

// newTerminalConfig reads COLUMNS and NO_COLOR from the environment.
func newTerminalConfig() terminalConfig {
	return terminalConfig{
		Width:   detectWidth(),
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// detectWidth returns the clamped terminal width from the COLUMNS environment
// variable, or defaultWidth if not set or invalid.
func detectWidth() int {
	columnsEnv := os.Getenv("COLUMNS")
	if columnsEnv == "" {
		return defaultWidth
	}

	width, err := strconv.Atoi(columnsEnv)
	if err != nil {
		return defaultWidth
	}

	if width < minWidth {
		return minWidth
	}

	if width > maxWidth {
		return maxWidth
	}

	return width
}
