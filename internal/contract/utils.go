package contract

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/delphi/internal/logger"
	"github.com/joho/godotenv"
)

// Consensus label constants.
const (
	StrongValue    = "Strong"    // Estimators largely agree
	ModerateValue  = "Moderate"  // Some spread remains
	WeakValue      = "Weak"      // Wide spread
	DivergentValue = "Divergent" // No meaningful consensus
)

// Color variables for console output.
var (
	StrongColor    = color.New(color.FgGreen, color.Bold)
	ModerateColor  = color.New(color.FgCyan)
	WeakColor      = color.New(color.FgYellow)
	DivergentColor = color.New(color.FgRed, color.Bold)
)

// GetPlainLabel returns a plain text label for how close the estimators came
// to consensus, given the standard deviation as a percentage of the mean.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(relativeSpread float64) string {
	switch {
	case relativeSpread < 10:
		return StrongValue
	case relativeSpread < 25:
		return ModerateValue
	case relativeSpread < 50:
		return WeakValue
	default:
		return DivergentValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(relativeSpread float64) string {
	text := GetPlainLabel(relativeSpread)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	case WeakValue:
		return WeakColor.Sprint(text)
	default:
		return DivergentColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LoadDotEnv loads DELPHI_* variables from a .env file into the environment.
// A missing file is not an error; variables already set are left alone.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	logger.Global().Error().Err(err).Msg(msg)
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	logger.Global().Warn().Err(err).Msg(msg)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for estimation storage.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".delphi_store.db"
	}
	return filepath.Join(homeDir, ".delphi_store.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for report history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".delphi_history.db"
	}
	return filepath.Join(homeDir, ".delphi_history.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseEstimates splits a comma separated list of numbers. Entries that are
// blank or not numbers become NaN so the recorder can report them per module.
func ParseEstimates(s string) []float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			v = math.NaN()
		}
		values[i] = v
	}
	return values
}

// TruncateText shortens text to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so at least one character of content survives.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}
