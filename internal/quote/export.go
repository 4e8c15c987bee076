package quote

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ziadkadry99/rfqpilot/internal/rfq"
)

const comparisonSheet = "Comparison"

// ExportXLSX writes a comparison matrix: one row per RFQ line with each
// supplier's unit price and line total, followed by totals, lead times and
// the recommendation.
func ExportXLSX(w io.Writer, r *rfq.Rfq, quotes []Quote, c *Comparison) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", comparisonSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	header := []any{"Line", "Description", "Qty", "UOM"}
	for _, q := range quotes {
		label := q.SupplierName
		if q.Currency != "" {
			label += " (" + q.Currency + ")"
		}
		header = append(header, label+" unit", label+" total")
	}
	if err := f.SetSheetRow(comparisonSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	f.SetCellStyle(comparisonSheet, "A1", last, bold)

	row := 2
	if r != nil {
		for _, li := range r.LineItems {
			values := []any{li.Line, li.Description, li.Quantity, li.UOM}
			for _, q := range quotes {
				if it, ok := q.Item(li.Line); ok {
					values = append(values, it.UnitPrice, it.LineTotal)
				} else {
					values = append(values, "", "")
				}
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(comparisonSheet, cell, &values); err != nil {
				return fmt.Errorf("writing line %d: %w", li.Line, err)
			}
			row++
		}
	}

	row++
	summary := [][]any{
		{"Total"},
		{"Lead time"},
		{"Payment terms"},
		{"Validity"},
	}
	for _, q := range quotes {
		summary[0] = append(summary[0], "", q.Total)
		summary[1] = append(summary[1], "", q.LeadTime)
		summary[2] = append(summary[2], "", q.PaymentTerms)
		summary[3] = append(summary[3], "", q.Validity)
	}
	for _, values := range summary {
		padded := append([]any{values[0], "", "", ""}, values[1:]...)
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(comparisonSheet, cell, &padded); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		f.SetCellStyle(comparisonSheet, cell, cell, bold)
		row++
	}

	if c != nil {
		row++
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(comparisonSheet, cell, "Recommendation")
		f.SetCellStyle(comparisonSheet, cell, cell, bold)
		cell, _ = excelize.CoordinatesToCellName(2, row)
		f.SetCellValue(comparisonSheet, cell, c.Recommendation)
	}

	f.SetColWidth(comparisonSheet, "B", "B", 40)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
