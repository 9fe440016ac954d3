package upload

import (
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/npanukhin/excel_uploader/internal/domain"
)

// MsgInvalidFileType is surfaced when validation rejects a candidate.
const MsgInvalidFileType = "Invalid file type. Please upload an Excel (.xlsx, .xls) or CSV (.csv) file."

var acceptedMediaTypes = map[string]struct{}{
	domain.MediaTypeXLSX: {},
	domain.MediaTypeXLS:  {},
	domain.MediaTypeCSV:  {},
}

// Validator gates candidates into a session by their declared media type.
type Validator struct {
	log *slog.Logger
}

func NewValidator(log *slog.Logger) *Validator {
	return &Validator{log: log}
}

// Validate stages the candidate into the session when its media type is
// accepted, or rejects it with a fixed message. It never touches the network.
func (v *Validator) Validate(session *domain.Session, candidate *domain.Candidate) domain.State {
	if candidate == nil {
		v.log.Debug("validation rejected: no candidate")
		return session.Apply(domain.Rejected{Message: MsgInvalidFileType})
	}

	if _, ok := acceptedMediaTypes[candidate.MediaType]; !ok {
		v.log.Debug("validation rejected: unsupported media type",
			slog.String("name", candidate.Name),
			slog.String("media_type", candidate.MediaType),
		)
		return session.Apply(domain.Rejected{Message: MsgInvalidFileType})
	}

	v.log.Debug("candidate staged",
		slog.String("name", candidate.Name),
		slog.String("media_type", candidate.MediaType),
	)

	return session.Apply(domain.Validated{Candidate: candidate})
}

// MediaTypeForPath maps a file extension to the media type a browser would
// declare for it, falling back to the platform MIME registry.
func MediaTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".xlsx":
		return domain.MediaTypeXLSX
	case ".xls":
		return domain.MediaTypeXLS
	case ".csv":
		return domain.MediaTypeCSV
	default:
		return mime.TypeByExtension(ext)
	}
}
