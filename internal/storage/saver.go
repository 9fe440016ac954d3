package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DirSaver stores downloaded artifacts in a local directory. Writes go
// through a uniquely named temp file that is renamed into place, so a
// half-written download never lands under its final name.
type DirSaver struct {
	log *slog.Logger
	dir string
}

func NewDirSaver(log *slog.Logger, dir string) *DirSaver {
	return &DirSaver{
		log: log,
		dir: dir,
	}
}

func (s *DirSaver) Save(name, contentType string, data []byte) error {
	// The name comes from a response header; strip any path components.
	name = filepath.Base(name)

	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".part")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	dst := filepath.Join(s.dir, name)
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	s.log.Debug("download written",
		slog.String("path", dst),
		slog.String("content_type", contentType),
	)

	return nil
}
