package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SimpleDioney/Amostras/internal/ledger"
)

// SheetName is the worksheet every export writes to.
const SheetName = "Samples"

// Columns is the fixed header of every export.
var Columns = []string{
	"Agent",
	"Status",
	"Customer",
	"Contract closed",
	"Received",
	"Follow-up",
	"Sample ID",
	"Client feedback",
}

var columnWidths = []float64{25, 28, 25, 16, 14, 14, 40, 50}

// Options tune an export.
type Options struct {
	// Location renders received dates; nil means UTC.
	Location *time.Location
	// OnRow is called after each data row is written.
	OnRow func()
}

// Export writes rows as an xlsx workbook to w.
func Export(w io.Writer, rows []ledger.ReportRow, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeHeader(f); err != nil {
		return err
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := Row(r, loc)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
		if opts.OnRow != nil {
			opts.OnRow()
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// ExportBytes is Export into memory, for sending as an attachment.
func ExportBytes(rows []ledger.ReportRow, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(&buf, rows, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Row renders one export row in column order.
func Row(r ledger.ReportRow, loc *time.Location) []any {
	s := r.Sample
	return []any{
		r.AgentName,
		s.Status.Label(),
		orDash(s.CustomerName),
		contractCell(s.Contract),
		s.ReceivedAt.In(loc).Format("02/01/2006"),
		s.FollowUpDate.Display(),
		s.ID,
		orDash(s.ClientFeedback),
	}
}

// FileName builds an attachment name such as Report_Ana_Paula.xlsx.
func FileName(subject string) string {
	return "Report_" + strings.Join(strings.Fields(subject), "_") + ".xlsx"
}

func writeHeader(f *excelize.File) error {
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(SheetName, "A1", last+"1", style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}
	return nil
}

func contractCell(c ledger.Contract) string {
	switch c {
	case ledger.ContractClosed:
		return "Yes"
	case ledger.ContractNotClosed:
		return "No"
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
