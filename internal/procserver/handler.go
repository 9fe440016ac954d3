package procserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/npanukhin/excel_uploader/internal/domain"
)

const maxUploadSize = 10 << 20 // 10MiB

type UploadHandler struct {
	log       *slog.Logger
	processor *Processor
}

func NewUploadHandler(log *slog.Logger, processor *Processor) *UploadHandler {
	return &UploadHandler{
		log:       log,
		processor: processor,
	}
}

type errorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (h *UploadHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "Failed to parse upload form.", nil)
		return
	}

	file, header, err := r.FormFile("excel_file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "No file was uploaded.", nil)
		return
	}
	defer file.Close()

	log := h.log.With(slog.String("filename", header.Filename))
	log.InfoContext(r.Context(), "received upload", slog.Int64("size", header.Size))

	rows, details, err := h.processor.Parse(header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, ErrUnsupportedMediaType) {
			h.writeError(w, http.StatusUnsupportedMediaType, "Unsupported file type.", nil)
			return
		}

		log.ErrorContext(r.Context(), "failed to parse upload", slog.String("err", err.Error()))
		h.writeError(w, http.StatusBadRequest, "File could not be parsed.", nil)
		return
	}

	if len(details) > 0 {
		h.writeError(w, http.StatusBadRequest, "Some rows failed validation.", details)
		return
	}

	payload, err := h.processor.Render(rows)
	if err != nil {
		log.ErrorContext(r.Context(), "failed to render workbook", slog.String("err", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "An error occurred during processing.", nil)
		return
	}

	name := processedName(header.Filename)

	w.Header().Set("Content-Type", domain.MediaTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(payload)
}

func (h *UploadHandler) writeError(w http.ResponseWriter, status int, message string, details []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorResponse{Message: message, Details: details}); err != nil {
		h.log.Error("failed to encode error response", slog.String("err", err.Error()))
	}
}

func processedName(uploaded string) string {
	base := filepath.Base(uploaded)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "data"
	}

	return "processed_" + base + ".xlsx"
}
