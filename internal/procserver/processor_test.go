package procserver_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/npanukhin/excel_uploader/internal/domain"
	"github.com/npanukhin/excel_uploader/internal/procserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestProcessor_Parse_CSVHappyPath(t *testing.T) {
	t.Parallel()

	processor := procserver.NewProcessor(slog.New(slog.DiscardHandler))

	input := strings.NewReader("n,name,quantity,unit_price\n1,widget,2,9.5\n2,gadget,1,30\n")

	rows, details, err := processor.Parse(domain.MediaTypeCSV, input)
	require.NoError(t, err)
	assert.Empty(t, details)
	require.Len(t, rows, 2)

	assert.Equal(t, &procserver.Row{N: 1, Name: "widget", Quantity: 2, UnitPrice: 9.5}, rows[0])
	assert.InDelta(t, 19.0, rows[0].Total(), 1e-9)
}

func TestProcessor_Parse_CSVInvalidRows(t *testing.T) {
	t.Parallel()

	processor := procserver.NewProcessor(slog.New(slog.DiscardHandler))

	input := strings.NewReader("n,name,quantity,unit_price\n1,widget,2,9.5\n2,,1,30\n3,bolt,-4,1\n")

	rows, details, err := processor.Parse(domain.MediaTypeCSV, input)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.Len(t, details, 2)
	assert.Contains(t, details[0], "row 2 invalid")
	assert.Contains(t, details[0], "name is required")
	assert.Contains(t, details[1], "row 3 invalid")
	assert.Contains(t, details[1], "quantity must not be negative")
}

func TestProcessor_Parse_CSVEmpty(t *testing.T) {
	t.Parallel()

	processor := procserver.NewProcessor(slog.New(slog.DiscardHandler))

	rows, details, err := processor.Parse(domain.MediaTypeCSV, strings.NewReader("n,name,quantity,unit_price\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, details)
}

func TestProcessor_Parse_XLSXRoundTrip(t *testing.T) {
	t.Parallel()

	processor := procserver.NewProcessor(slog.New(slog.DiscardHandler))

	rows, details, err := processor.Parse(domain.MediaTypeXLSX, bytes.NewReader(workbook(t, [][]any{
		{"n", "name", "quantity", "unit_price"},
		{1, "widget", 2, 9.5},
		{2, "", 1, 30},
	})))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "widget", rows[0].Name)

	require.Len(t, details, 1)
	assert.Contains(t, details[0], "row 2 invalid")
}

func TestProcessor_Parse_XLSXMissingColumn(t *testing.T) {
	t.Parallel()

	processor := procserver.NewProcessor(slog.New(slog.DiscardHandler))

	_, _, err := processor.Parse(domain.MediaTypeXLSX, bytes.NewReader(workbook(t, [][]any{
		{"n", "name"},
		{1, "widget"},
	})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

func TestProcessor_Parse_UnsupportedMediaType(t *testing.T) {
	t.Parallel()

	processor := procserver.NewProcessor(slog.New(slog.DiscardHandler))

	_, _, err := processor.Parse("application/pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, procserver.ErrUnsupportedMediaType)
}

func TestProcessor_Render_ComputesTotals(t *testing.T) {
	t.Parallel()

	processor := procserver.NewProcessor(slog.New(slog.DiscardHandler))

	payload, err := processor.Render([]*procserver.Row{
		{N: 1, Name: "widget", Quantity: 2, UnitPrice: 9.5},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	cells, err := f.GetRows("Processed")
	require.NoError(t, err)
	require.Len(t, cells, 2)

	assert.Equal(t, []string{"n", "name", "quantity", "unit_price", "total"}, cells[0])
	assert.Equal(t, "widget", cells[1][1])
	assert.Equal(t, "19", cells[1][4])
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	return buf.Bytes()
}
