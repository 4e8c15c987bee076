package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxTableRows caps how many spreadsheet rows are sent to the model.
const maxTableRows = 500

type delimitedParser struct{}

func (delimitedParser) canParse(ext string) bool {
	return ext == ".csv" || ext == ".tsv"
}

func (delimitedParser) parse(ext string, data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	if ext == ".tsv" {
		r.Comma = '\t'
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return pipeTable(rows), nil
}

type xlsxParser struct{}

func (xlsxParser) canParse(ext string) bool {
	return ext == ".xlsx" || ext == ".xlsm"
}

// parse renders the first sheet.
func (xlsxParser) parse(_ string, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return pipeTable(rows), nil
}

// pipeTable renders rows as a markdown-style pipe table, padding short rows
// and dropping blank ones.
func pipeTable(rows [][]string) string {
	width := 0
	var kept [][]string
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		kept = append(kept, row)
		if len(row) > width {
			width = len(row)
		}
	}
	truncated := 0
	if len(kept) > maxTableRows {
		truncated = len(kept) - maxTableRows
		kept = kept[:maxTableRows]
	}

	var b strings.Builder
	for i, row := range kept {
		b.WriteString("|")
		for c := 0; c < width; c++ {
			cell := ""
			if c < len(row) {
				cell = strings.ReplaceAll(strings.TrimSpace(row[c]), "|", "/")
				cell = strings.ReplaceAll(cell, "\n", " ")
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
		}
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "(%d more rows omitted)\n", truncated)
	}
	return strings.TrimRight(b.String(), "\n")
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
