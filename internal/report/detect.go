package report

import (
	"os"

	"golang.org/x/term"
)

// StylingEnabled reports whether the batch summary should be rendered
// with colors and borders.
//
// Returns false if:
//   - BRONZELOAD_PLAIN=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - stdout is not a terminal (piped output, log capture)
func StylingEnabled() bool {
	if os.Getenv("BRONZELOAD_PLAIN") == "1" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	return true
}
