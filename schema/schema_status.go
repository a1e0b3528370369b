package schema

import "time"

// StoreStatus represents the status of the estimation store.
type StoreStatus struct {
	Backend        string    `json:"backend"`
	Connected      bool      `json:"connected"`
	Project        string    `json:"project"`
	ModuleCount    int       `json:"module_count"`
	EstimatorCount int       `json:"estimator_count"`
	LastUpdateTime time.Time `json:"last_update_time"`
	TableSizeBytes int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the report history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalProjects int              `json:"total_projects"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// ReportRunRecord represents a row from the delphi_report_runs table.
type ReportRunRecord struct {
	RunID             string
	Project           string
	CreatedAt         time.Time
	ConfidenceLevel   ConfidenceLevel
	StatsMode         StatsMode
	ModuleCount       int
	EstimatorCount    int
	SampleSize        int
	MeanEffort        float64
	StandardDeviation float64
	StandardError     float64
	LowerBound        *float64
	UpperBound        *float64
	AvgRound1         float64
	AvgRound2         float64
	AvgRound3         float64
}
