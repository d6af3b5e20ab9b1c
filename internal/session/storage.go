package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dataops/ui/widgets"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Staging keeps uploaded files on local disk between selection and analysis.
// Each session gets its own directory under the base path.
type Staging struct {
	basePath string
}

// NewStaging creates the staging root under dir
func NewStaging(dir string) (*Staging, error) {
	basePath := filepath.Join(dir, "dataops-staging")
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Staging{basePath: basePath}, nil
}

// BasePath returns the staging root
func (st *Staging) BasePath() string {
	return st.basePath
}

// Stage copies r into the session's directory. The original file name is
// kept for display only; the file on disk gets a random name.
func (st *Staging) Stage(sessionID, name, contentType string, r io.Reader) (*widgets.SelectedFile, error) {
	dir := st.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	displayName := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if displayName == "." || displayName == "/" || displayName == "" {
		displayName = "upload"
	}
	path := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(displayName)))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write file %s: %w", path, err)
	}

	if contentType == "" || contentType == "application/octet-stream" {
		if mt, err := mimetype.DetectFile(path); err == nil {
			contentType = mt.String()
		}
	}

	return &widgets.SelectedFile{
		Name:        displayName,
		Size:        size,
		ContentType: contentType,
		Path:        path,
	}, nil
}

// RemoveSession deletes everything staged for a session
func (st *Staging) RemoveSession(sessionID string) error {
	if err := os.RemoveAll(st.sessionDir(sessionID)); err != nil {
		return fmt.Errorf("failed to remove staged files for %s: %w", sessionID, err)
	}
	return nil
}

// Purge removes every entry under the staging root. Sessions live only in
// memory, so at startup everything staged belongs to a previous process.
func (st *Staging) Purge() (int, error) {
	entries, err := os.ReadDir(st.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list staging directory: %w", err)
	}

	removed := 0
	var firstErr error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(st.basePath, entry.Name())); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

func (st *Staging) sessionDir(sessionID string) string {
	return filepath.Join(st.basePath, filepath.Base(sessionID))
}
