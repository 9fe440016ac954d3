package procserver

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/npanukhin/excel_uploader/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedMediaType is returned for uploads the processor cannot parse.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

var resultColumns = []any{"n", "name", "quantity", "unit_price", "total"}

// Processor parses uploaded spreadsheets into rows and renders the processed
// workbook returned to the client.
type Processor struct {
	log *slog.Logger
}

func NewProcessor(log *slog.Logger) *Processor {
	return &Processor{log: log}
}

// Parse decodes the upload by its declared media type. Rows that fail
// validation are reported as ordered detail strings; a non-nil error means
// the file itself could not be decoded.
func (p *Processor) Parse(mediaType string, r io.Reader) ([]*Row, []string, error) {
	switch mediaType {
	case domain.MediaTypeCSV:
		return p.parseCSV(r)
	case domain.MediaTypeXLSX:
		return p.parseXLSX(r)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
}

func (p *Processor) parseCSV(r io.Reader) ([]*Row, []string, error) {
	reader := csv.NewReader(r)

	dec, err := csvutil.NewDecoder(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	p.log.Debug("parsing csv upload")

	var (
		rows    []*Row
		details []string
		n       int
	)
	for {
		var row Row

		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}

		n++

		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode row %d: %w", n, err)
		}

		if err := row.Validate(); err != nil {
			details = append(details, fmt.Sprintf("row %d invalid: %v", n, err))
			continue
		}

		rows = append(rows, &row)
	}

	p.log.Debug("parsed csv upload",
		slog.Int("rows", len(rows)),
		slog.Int("invalid_rows", len(details)),
	)

	return rows, details, nil
}

func (p *Processor) parseXLSX(r io.Reader) (_ []*Row, _ []string, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	sheet := f.GetSheetName(0)

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	if len(cells) == 0 {
		return nil, nil, nil
	}

	columns, err := headerIndex(cells[0])
	if err != nil {
		return nil, nil, err
	}

	p.log.Debug("parsing xlsx upload", slog.String("sheet", sheet))

	var (
		rows    []*Row
		details []string
	)
	for i, record := range cells[1:] {
		row, err := decodeRecord(record, columns)
		if err == nil {
			err = row.Validate()
		}

		if err != nil {
			details = append(details, fmt.Sprintf("row %d invalid: %v", i+1, err))
			continue
		}

		rows = append(rows, row)
	}

	p.log.Debug("parsed xlsx upload",
		slog.Int("rows", len(rows)),
		slog.Int("invalid_rows", len(details)),
	)

	return rows, details, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{"n", "name", "quantity", "unit_price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	return columns, nil
}

func decodeRecord(record []string, columns map[string]int) (*Row, error) {
	cell := func(name string) string {
		i := columns[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	n, err := strconv.Atoi(cell("n"))
	if err != nil {
		return nil, fmt.Errorf("n: %w", err)
	}

	quantity, err := parseFloat(cell("quantity"))
	if err != nil {
		return nil, fmt.Errorf("quantity: %w", err)
	}

	unitPrice, err := parseFloat(cell("unit_price"))
	if err != nil {
		return nil, fmt.Errorf("unit_price: %w", err)
	}

	return &Row{
		N:         n,
		Name:      cell("name"),
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Render writes the processed rows into a fresh workbook with a computed
// total column.
func (p *Processor) Render(rows []*Row) (_ []byte, err error) {
	f := excelize.NewFile()
	defer func() { err = errors.Join(err, f.Close()) }()

	const sheet = "Processed"

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &resultColumns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cell: %w", err)
		}

		values := []any{row.N, row.Name, row.Quantity, row.UnitPrice, row.Total()}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return buf.Bytes(), nil
}
