package domain

// Media types accepted for upload.
const (
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeXLS  = "application/vnd.ms-excel"
	MediaTypeCSV  = "text/csv"
)

// Candidate is the file currently staged for upload. It is owned by a single
// submission cycle and cleared once that cycle succeeds or a new file is
// selected.
type Candidate struct {
	Name      string
	MediaType string
	Data      []byte
}
