package procserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/npanukhin/excel_uploader/internal/config"
	"github.com/npanukhin/excel_uploader/internal/domain"
	"github.com/npanukhin/excel_uploader/internal/procserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(
		procserver.NewServer(slog.New(slog.DiscardHandler), config.HTTP{}).Router(),
	)
	t.Cleanup(server.Close)

	return server
}

func postUpload(t *testing.T, url, filename, mediaType string, content []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="excel_file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/api/upload-excel", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestUploadHandler_ProcessesCSV(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp := postUpload(t, server.URL, "orders.csv", domain.MediaTypeCSV,
		[]byte("n,name,quantity,unit_price\n1,widget,2,9.5\n"))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.MediaTypeXLSX, resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="processed_orders.xlsx"`, resp.Header.Get("Content-Disposition"))

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	cells, err := f.GetRows("Processed")
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, "19", cells[1][4])
}

func TestUploadHandler_InvalidRows(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp := postUpload(t, server.URL, "orders.csv", domain.MediaTypeCSV,
		[]byte("n,name,quantity,unit_price\n1,widget,2,9.5\n2,,1,30\n"))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envelope struct {
		Message string   `json:"message"`
		Details []string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	assert.Equal(t, "Some rows failed validation.", envelope.Message)
	require.Len(t, envelope.Details, 1)
	assert.Contains(t, envelope.Details[0], "row 2 invalid")
}

func TestUploadHandler_UnsupportedMediaType(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp := postUpload(t, server.URL, "report.pdf", "application/pdf", []byte("%PDF-"))

	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	var envelope struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "Unsupported file type.", envelope.Message)
}

func TestUploadHandler_MissingFileField(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other_field", "value"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/upload-excel", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "No file was uploaded.", envelope.Message)
}

func TestUploadHandler_MalformedWorkbook(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp := postUpload(t, server.URL, "data.xlsx", domain.MediaTypeXLSX, []byte("not a zip archive"))

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "File could not be parsed.", envelope.Message)
}
