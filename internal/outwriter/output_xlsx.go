package outwriter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// sheet is one worksheet of an exported workbook.
// Row values are written as-is, so numbers stay numeric in the spreadsheet.
type sheet struct {
	name    string
	headers []string
	rows    [][]any
}

const (
	minColWidth = 12
	maxColWidth = 50
)

// xlsxStyles holds the style IDs shared by every sheet of a workbook.
type xlsxStyles struct {
	header     int
	text       [2]int // even, odd
	numeric    [2]int
	numFmtCode string
}

func newXLSXStyles(f *excelize.File, precision int) (xlsxStyles, error) {
	var s xlsxStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: cellBorder("000000"),
	})
	if err != nil {
		return s, err
	}

	s.numFmtCode = numberFormat(precision)
	for i, fill := range []string{"FFFFFF", "F2F2F2"} {
		if s.text[i], err = f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Border: cellBorder("D9D9D9"),
		}); err != nil {
			return s, err
		}
		if s.numeric[i], err = f.NewStyle(&excelize.Style{
			Fill:         excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Border:       cellBorder("D9D9D9"),
			CustomNumFmt: &s.numFmtCode,
		}); err != nil {
			return s, err
		}
	}
	return s, nil
}

func cellBorder(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
	}
}

// numberFormat returns the spreadsheet number format for precision decimals, e.g. "0.00".
func numberFormat(precision int) string {
	if precision <= 0 {
		return "0"
	}
	return "0." + strings.Repeat("0", precision)
}

// writeWorkbook builds a workbook with one worksheet per sheet and writes it to w.
func writeWorkbook(w io.Writer, sheets []sheet, precision int) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	styles, err := newXLSXStyles(f, precision)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh, styles); err != nil {
			return fmt.Errorf("write sheet %s: %w", sh.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sh sheet, styles xlsxStyles) error {
	widths := make([]int, len(sh.headers))
	for col, header := range sh.headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sh.name, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sh.name, cell, cell, styles.header); err != nil {
			return err
		}
		widths[col] = utf8.RuneCountInString(header)
	}

	for r, row := range sh.rows {
		excelRow := r + 2 // row 1 is the header
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, excelRow)
			if err := f.SetCellValue(sh.name, cell, value); err != nil {
				return err
			}
			style := styles.text[r%2]
			if _, ok := value.(float64); ok {
				style = styles.numeric[r%2]
			}
			if err := f.SetCellStyle(sh.name, cell, cell, style); err != nil {
				return err
			}
			if col < len(widths) {
				widths[col] = max(widths[col], utf8.RuneCountInString(fmt.Sprint(value)))
			}
		}
	}

	for col, width := range widths {
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sh.name, colName, colName, float64(min(max(width+2, minColWidth), maxColWidth))); err != nil {
			return err
		}
	}
	return nil
}
