// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRound prints a round view using the configured output format.
func (ow *OutWriter) WriteRound(result schema.AggregateResult, cfg *contract.Config) error {
	return WriteRoundResults(result, cfg)
}

// WriteReport prints the final report using the configured output format.
func (ow *OutWriter) WriteReport(report schema.Report, cfg *contract.Config) error {
	return WriteReportResults(report, cfg)
}

// WriteModules prints the module list using the configured output format.
func (ow *OutWriter) WriteModules(modules []schema.Module, locked bool, cfg *contract.Config) error {
	return WriteModuleList(modules, locked, cfg)
}

// WriteEstimators prints the estimator list using the configured output format.
func (ow *OutWriter) WriteEstimators(estimators []schema.EstimatorEligibility, round schema.Round, cfg *contract.Config) error {
	return WriteEstimatorList(estimators, round, cfg)
}

// WriteHistory prints recorded report runs using the configured output format.
func (ow *OutWriter) WriteHistory(runs []schema.ReportRunRecord, cfg *contract.Config) error {
	return WriteReportHistory(runs, cfg)
}

// WritePERT prints a three-point estimate using the configured output format.
func (ow *OutWriter) WritePERT(result schema.PERTResult, cfg *contract.Config) error {
	return WritePERTResults(result, cfg)
}

// WriteCocomo prints a COCOMO-I estimate using the configured output format.
func (ow *OutWriter) WriteCocomo(result schema.CocomoResult, cfg *contract.Config) error {
	return WriteCocomoResults(result, cfg)
}

// WriteFPA prints a function point analysis using the configured output format.
func (ow *OutWriter) WriteFPA(result schema.FPAResult, cfg *contract.Config) error {
	return WriteFPAResults(result, cfg)
}

// WriteCocomo2 prints a COCOMO II estimate using the configured output format.
func (ow *OutWriter) WriteCocomo2(result schema.Cocomo2Result, cfg *contract.Config) error {
	return WriteCocomo2Results(result, cfg)
}
