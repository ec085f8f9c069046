// Package detector picks the output mode for the current terminal.
package detector

import (
	"os"

	"go.trai.ch/gate/internal/core/domain"
	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive TUI renderer.
	ModeTUI
	// ModeLinear forces the linear CI renderer.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// DetectEnvironment returns ModeLinear when stdout is not a terminal or CI is set.
func DetectEnvironment() OutputMode {
	return detect(term.IsTerminal(int(os.Stdout.Fd())), os.Getenv("CI"))
}

func detect(isTTY bool, ci string) OutputMode {
	if !isTTY || isCI(ci) {
		return ModeLinear
	}
	return ModeTUI
}

// IsCI reports whether the CI variable marks a CI environment.
func IsCI() bool {
	return isCI(os.Getenv("CI"))
}

func isCI(v string) bool {
	return v == "true" || v == "1"
}

// ParseMode validates an --output-mode value. "ci" is an alias for "linear".
func ParseMode(flag string) (OutputMode, error) {
	switch flag {
	case "auto", "":
		return ModeAuto, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, domain.Tag(domain.ErrInvalidOutputMode, "mode", flag)
	}
}

// ResolveMode applies the user's choice to the detected mode.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	mode, err := ParseMode(userFlag)
	if err != nil || mode == ModeAuto {
		return autoDetected
	}
	return mode
}
