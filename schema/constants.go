package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// ConfidenceLevel represents the confidence level used for the final interval.
	ConfidenceLevel string

	// StatsMode selects how the final statistics are centred.
	StatsMode string

	// CocomoClass represents the COCOMO-I project class.
	CocomoClass string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	XLSXOut OutputMode = "xlsx"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory" // estimation store only
	NoneBackend       DatabaseBackend = "none"   // history store only
)

// All confidence levels supported.
const (
	Confidence90 ConfidenceLevel = "90%"
	Confidence95 ConfidenceLevel = "95%" // default
	Confidence99 ConfidenceLevel = "99%"
)

// All statistics modes supported.
const (
	// HistoricalStats sums the per-round averages and centres the deviation on that sum.
	HistoricalStats StatsMode = "historical" // default
	// CorrectedStats uses the natural mean of the combined efforts.
	CorrectedStats StatsMode = "corrected"
)

// All COCOMO-I project classes supported.
const (
	OrganicClass      CocomoClass = "organic" // default
	SemiDetachedClass CocomoClass = "semidetached"
	EmbeddedClass     CocomoClass = "embedded"
)

// Display labels shared by every output format.
const (
	PendingLabel          = "Pending"
	NotAvailableLabel     = "N/A"
	InsufficientDataLabel = "insufficient data"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
	XLSXOut: {},
}

// ValidStoreBackends lists all valid estimation store backends.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
}

// ValidHistoryBackends lists all valid report history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidStatsModes lists all valid statistics modes.
var ValidStatsModes = map[StatsMode]struct{}{
	HistoricalStats: {},
	CorrectedStats:  {},
}

// AllConfidenceLevels returns the supported confidence levels in ascending order.
var AllConfidenceLevels = []ConfidenceLevel{Confidence90, Confidence95, Confidence99}

// ParseConfidenceLevel accepts "95", "95%" or "0.95" and returns the matching level.
func ParseConfidenceLevel(s string) (ConfidenceLevel, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Confidence95, nil
	}
	trimmed := strings.TrimSuffix(raw, "%")
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return "", fmt.Errorf("invalid confidence level '%s'. must be 90%%, 95%% or 99%%", s)
	}
	if v > 0 && v < 1 {
		v *= 100
	}
	for _, level := range AllConfidenceLevels {
		if math.Abs(level.Percent()-v) < 1e-9 {
			return level, nil
		}
	}
	return "", fmt.Errorf("invalid confidence level '%s'. must be 90%%, 95%% or 99%%", s)
}

// Percent returns the numeric percentage of the level, e.g. 95 for "95%".
func (c ConfidenceLevel) Percent() float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(string(c), "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseCocomoClass accepts a class name or its original numeric code (1, 2, 3).
func ParseCocomoClass(s string) (CocomoClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "organic":
		return OrganicClass, nil
	case "2", "semidetached", "semi-detached":
		return SemiDetachedClass, nil
	case "3", "embedded":
		return EmbeddedClass, nil
	default:
		return "", fmt.Errorf("invalid project class '%s'. must be organic, semidetached, embedded", s)
	}
}
