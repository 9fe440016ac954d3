package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"regexp"

	"github.com/npanukhin/excel_uploader/internal/domain"
)

const (
	uploadPath = "/api/upload-excel"
	fieldName  = "excel_file"

	defaultDownloadName = "processed_data.xlsx"
	defaultContentType  = "application/octet-stream"
)

// Messages surfaced through the session signals.
const (
	MsgNoFile          = "Please select a file first."
	MsgSuccess         = "File processed and download started!"
	MsgProcessingError = "An error occurred during processing."
	MsgUnexpectedError = "An unexpected error occurred."
)

// ErrBusy is returned when Submit is entered while a submission is already in
// flight. Callers are expected to gate re-entry on State().Busy.
var ErrBusy = errors.New("submission already in flight")

// Extended RFC 5987 filename*= syntax is intentionally not handled.
var filenamePattern = regexp.MustCompile(`(?i)filename="?([^";]+)"?`)

// Saver stores a downloaded artifact locally under the suggested name.
type Saver interface {
	Save(name, contentType string, data []byte) error
}

// Orchestrator drives one submit-and-receive cycle: it posts the staged
// candidate as multipart form data, saves a 2xx body as a download, and
// decodes non-2xx bodies as structured error envelopes.
type Orchestrator struct {
	log     *slog.Logger
	baseURL string
	client  *http.Client
	saver   Saver
}

func NewOrchestrator(log *slog.Logger, baseURL string, client *http.Client, saver Saver) *Orchestrator {
	if client == nil {
		client = &http.Client{}
	}

	return &Orchestrator{
		log:     log,
		baseURL: baseURL,
		client:  client,
		saver:   saver,
	}
}

// errorEnvelope is the JSON body of a structured remote error. Both fields
// are optional.
type errorEnvelope struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// Submit runs a full submission cycle against the session's staged candidate
// and settles the session signals. All failures terminate the cycle through
// the error signal; the returned error is non-nil only for re-entry while
// busy.
func (o *Orchestrator) Submit(ctx context.Context, session *domain.Session) (domain.State, error) {
	state := session.State()
	if state.Busy {
		return state, ErrBusy
	}

	candidate := state.Candidate
	if candidate == nil {
		o.log.Debug("submit without a staged candidate")
		return session.Apply(domain.SubmitFailed{Message: MsgNoFile}), nil
	}

	session.Apply(domain.SubmitStarted{})

	o.log.InfoContext(ctx, "submitting file",
		slog.String("name", candidate.Name),
		slog.String("media_type", candidate.MediaType),
		slog.Int("size", len(candidate.Data)),
	)

	resp, err := o.post(ctx, candidate)
	if err != nil {
		o.log.ErrorContext(ctx, "request failed", slog.String("err", err.Error()))
		return session.Apply(domain.SubmitFailed{Message: MsgUnexpectedError}), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return o.settleSuccess(ctx, session, resp), nil
	}

	return o.settleFailure(ctx, session, resp), nil
}

func (o *Orchestrator) post(ctx context.Context, candidate *domain.Candidate) (*http.Response, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, candidate.Name))
	hdr.Set("Content-Type", candidate.MediaType)

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}

	if _, err := part.Write(candidate.Data); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+uploadPath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return o.client.Do(req)
}

func (o *Orchestrator) settleSuccess(ctx context.Context, session *domain.Session, resp *http.Response) domain.State {
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		o.log.ErrorContext(ctx, "failed to read response body", slog.String("err", err.Error()))
		return session.Apply(domain.SubmitFailed{Message: MsgUnexpectedError})
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	name := downloadName(resp.Header.Get("Content-Disposition"))

	if err := o.saver.Save(name, contentType, payload); err != nil {
		o.log.ErrorContext(ctx, "failed to save download",
			slog.String("name", name),
			slog.String("err", err.Error()),
		)
		return session.Apply(domain.SubmitFailed{Message: MsgUnexpectedError})
	}

	o.log.InfoContext(ctx, "download saved",
		slog.String("name", name),
		slog.String("content_type", contentType),
		slog.Int("size", len(payload)),
	)

	return session.Apply(domain.SubmitSucceeded{Message: MsgSuccess})
}

func (o *Orchestrator) settleFailure(ctx context.Context, session *domain.Session, resp *http.Response) domain.State {
	o.log.DebugContext(ctx, "remote reported failure", slog.Int("status", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return session.Apply(domain.SubmitFailed{Message: MsgUnexpectedError})
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return session.Apply(domain.SubmitFailed{Message: MsgUnexpectedError})
	}

	message := envelope.Message
	if message == "" {
		message = MsgProcessingError
	}

	return session.Apply(domain.SubmitFailed{
		Message: message,
		Details: envelope.Details,
	})
}

func downloadName(disposition string) string {
	match := filenamePattern.FindStringSubmatch(disposition)
	if match == nil || match[1] == "" {
		return defaultDownloadName
	}

	return match[1]
}
