package outwriter

import (
	"os"

	"github.com/huangsam/delphi/internal/contract"
	"golang.org/x/term"
)

// getTermWidth returns the width override, the detected terminal width or 80.
func getTermWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}

// getMaxDescriptionWidth calculates the maximum width for module descriptions
// in the round table, given how many estimator columns sit next to them.
func getMaxDescriptionWidth(cfg *contract.Config, estimatorCount int) int {
	// Index + Module, then one cell column per estimator
	baseWidth := 30 + estimatorCount*22

	// Table borders, separators and padding
	baseWidth += 10

	available := getTermWidth(cfg) - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}
