package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/npanukhin/excel_uploader/internal/config"
	"github.com/npanukhin/excel_uploader/internal/domain"
	"github.com/npanukhin/excel_uploader/internal/storage"
	"github.com/npanukhin/excel_uploader/internal/upload"
)

// App runs one upload cycle: stage the file, submit it, save the processed
// result.
type App struct {
	log *slog.Logger
	cfg *config.Config
}

func New(log *slog.Logger, cfg *config.Config) *App {
	return &App{
		log: log,
		cfg: cfg,
	}
}

func (a *App) Run(ctx context.Context, path string) error {
	a.log.InfoContext(ctx, "starting upload",
		slog.String("base_url", a.cfg.Client.BaseURL),
		slog.String("output_dir", a.cfg.Client.OutputDir),
		slog.String("file", path),
	)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}

	candidate := &domain.Candidate{
		Name:      filepath.Base(path),
		MediaType: upload.MediaTypeForPath(path),
		Data:      data,
	}

	session := domain.NewSession()

	state := upload.NewValidator(a.log).Validate(session, candidate)
	if state.Err != nil {
		return errors.New(state.Err.Message)
	}

	orchestrator := upload.NewOrchestrator(
		a.log,
		a.cfg.Client.BaseURL,
		&http.Client{},
		storage.NewDirSaver(a.log, a.cfg.Client.OutputDir),
	)

	state, err = orchestrator.Submit(ctx, session)
	if err != nil {
		return err
	}

	if state.Err != nil {
		for _, detail := range state.Err.Details {
			a.log.ErrorContext(ctx, "processing detail", slog.String("detail", detail))
		}

		return errors.New(state.Err.Message)
	}

	a.log.InfoContext(ctx, state.Success)

	return nil
}
