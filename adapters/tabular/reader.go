package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pairstat/adapters/datareadiness/coercer"
	"pairstat/domain/core"
	"pairstat/domain/dataset"
	"pairstat/internal"

	"github.com/xuri/excelize/v2"
)

// Format is a supported tabular file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// DetectFormat maps a file name to its format. SQL scripts and legacy
// binary .xls workbooks are reported as unsupported with a hint for the user.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".sql":
		return "", core.NewUnsupportedFormatError(ext, "SQL files are not supported, export the query result as CSV or XLSX")
	case ".xls":
		return "", core.NewUnsupportedFormatError(ext, "legacy Excel workbooks are not supported, save the file as .xlsx")
	}
	return "", core.NewUnsupportedFormatError(ext, "expected .csv, .xlsx or .json")
}

// ReaderOptions configures how cells are read
type ReaderOptions struct {
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
	// Delimiter for CSV; 0 means ','.
	Delimiter rune
	Coercion  coercer.CoercionConfig
}

// DefaultReaderOptions returns sensible defaults
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{Coercion: coercer.DefaultCoercionConfig()}
}

// DataReader loads CSV, XLSX and JSON files into datasets
type DataReader struct {
	filePath string
	format   Format
	opts     ReaderOptions
	logger   *internal.Logger
}

// NewDataReader creates a reader for filePath. The format is detected from
// the extension.
func NewDataReader(filePath string, opts ReaderOptions, logger *internal.Logger) (*DataReader, error) {
	format, err := DetectFormat(filePath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, format: format, opts: opts, logger: logger.With("reader")}, nil
}

// Format returns the detected file format
func (r *DataReader) Format() Format {
	return r.format
}

// ReadData reads the whole file into a dataset
func (r *DataReader) ReadData(ctx context.Context) (*dataset.Dataset, error) {
	r.logger.Debug("reading %s file: %s", r.format, r.filePath)

	f, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(string(r.format)), r.filePath)
		}
		return nil, fmt.Errorf("failed to open %s: %w", r.filePath, err)
	}
	defer f.Close()

	start := time.Now()
	ds, err := Read(ctx, f, r.format, r.opts)
	if err != nil {
		return nil, err
	}
	r.logger.Info("%s loaded in %.2fms (%d columns, %d rows)",
		filepath.Base(r.filePath), float64(time.Since(start).Nanoseconds())/1e6, len(ds.Columns()), ds.Len())
	return ds, nil
}

// Read parses a tabular stream in the given format
func Read(ctx context.Context, src io.Reader, format Format, opts ReaderOptions) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tc := coercer.NewTypeCoercer(opts.Coercion)
	var (
		headers []string
		rows    [][]dataset.Value
		err     error
	)
	switch format {
	case FormatCSV:
		headers, rows, err = readCSV(src, opts, tc)
	case FormatXLSX:
		headers, rows, err = readXLSX(src, opts, tc)
	case FormatJSON:
		headers, rows, err = readJSON(src, tc)
	default:
		return nil, core.NewUnsupportedFormatError(string(format), "unknown format")
	}
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 || len(rows) == 0 {
		return nil, fmt.Errorf("%w: file must have a header row and at least one data row", core.ErrEmptyResult)
	}
	return dataset.New(headers, rows)
}

func readCSV(src io.Reader, opts ReaderOptions, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value, error) {
	reader := csv.NewReader(src)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	headers, rows := processRows(records, tc)
	return headers, rows, nil
}

func readXLSX(src io.Reader, opts ReaderOptions, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("%w: workbook has no sheets", core.ErrEmptyResult)
		}
		sheet = sheets[0]
	}
	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	headers, rows := processRows(records, tc)
	return headers, rows, nil
}

// processRows turns string records into typed cells. The first record is
// the header. Empty cells are missing, numeric-looking cells are numbers and
// everything else stays text for the cleaner to judge.
func processRows(records [][]string, tc *coercer.TypeCoercer) ([]string, [][]dataset.Value) {
	if len(records) == 0 {
		return nil, nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([][]dataset.Value, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		row := make([]dataset.Value, len(headers))
		for j := range headers {
			if j >= len(record) {
				row[j] = dataset.Missing()
				continue
			}
			row[j] = parseCell(record[j], tc)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func parseCell(cell string, tc *coercer.TypeCoercer) dataset.Value {
	if cell == "" {
		return dataset.Missing()
	}
	if f, ok := tc.ParseNumber(cell); ok {
		return dataset.Numeric(f)
	}
	return dataset.Text(cell)
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
