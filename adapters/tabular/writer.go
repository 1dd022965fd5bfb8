package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"pairstat/domain/core"
	"pairstat/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name used for XLSX exports
const ExportSheet = "Sheet1"

// Write serializes ds as CSV or XLSX. Missing cells are written empty.
func Write(w io.Writer, ds *dataset.Dataset, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, ds)
	case FormatXLSX:
		return writeXLSX(w, ds)
	}
	return core.NewUnsupportedFormatError(string(format), "exports support csv and xlsx")
}

func writeCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns()); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for r := 0; r < ds.Len(); r++ {
		row := ds.Row(r)
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv: write row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, 0, len(ds.Columns()))
	for _, name := range ds.Columns() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	for r := 0; r < ds.Len(); r++ {
		row := ds.Row(r)
		cells := make([]interface{}, len(row))
		for i, v := range row {
			switch {
			case v.IsNumeric():
				cells[i] = v.Num
			case v.IsString():
				cells[i] = v.Str
			default:
				cells[i] = nil
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ExportSheet, cell, &cells); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", r, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}
