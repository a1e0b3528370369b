package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// errXLSXNeedsFile is returned when a workbook would be written to the terminal.
var errXLSXNeedsFile = errors.New("--output-file is required for xlsx output")

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return nil
}

// writeTable renders headers and rows with the shared right-aligned look.
func writeTable(w io.Writer, headers []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeXLSXResults writes the sheets to the configured output file.
// Workbooks are binary, so stdout is refused.
func writeXLSXResults(cfg *contract.Config, sheets []sheet) error {
	if cfg.OutputFile == "" {
		return errXLSXNeedsFile
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeWorkbook(w, sheets, cfg.Precision)
	}, "Wrote XLSX")
}

// dispatch runs the writer matching cfg.Output and wraps its error with the format name.
func dispatch(cfg *contract.Config, jsonFn, csvFn, xlsxFn, tableFn func() error) error {
	var (
		err    error
		format string
	)
	switch cfg.Output {
	case schema.JSONOut:
		err, format = jsonFn(), "JSON"
	case schema.CSVOut:
		err, format = csvFn(), "CSV"
	case schema.XLSXOut:
		err, format = xlsxFn(), "XLSX"
	default:
		// Default to human-readable table
		return tableFn()
	}
	if err != nil {
		return fmt.Errorf("error writing %s output: %w", format, err)
	}
	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// formatRounds renders a list of rounds as "1, 2".
func formatRounds(rounds []schema.Round) string {
	if len(rounds) == 0 {
		return "none"
	}
	parts := make([]string, len(rounds))
	for i, r := range rounds {
		parts[i] = fmt.Sprintf("%d", int(r))
	}
	return strings.Join(parts, ", ")
}

// formatNextRound renders the round an estimator may submit next.
func formatNextRound(r schema.Round) string {
	if r == 0 {
		return "done"
	}
	return fmt.Sprintf("%d", int(r))
}

// formatOptional renders a nullable number or NotAvailableLabel.
func formatOptional(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return schema.NotAvailableLabel
	}
	return fmtFloat(*v)
}
