// Package storage persists shared-file bytes on local disk, one directory per
// hire, and knows how to build the public retrieval URL served from /uploads.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Local struct {
	Root    string
	BaseURL string // optional absolute prefix, e.g. https://api.entrenar.app
}

func NewLocal(root, baseURL string) *Local {
	return &Local{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Save writes the bytes under <root>/<hireID>/ with a generated name that
// keeps the original extension, and returns the stored name.
func (l *Local) Save(hireID uuid.UUID, originalName string, data []byte) (string, error) {
	dir := filepath.Join(l.Root, hireID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	storedName := uuid.New().String() + filepath.Ext(originalName)
	if err := os.WriteFile(filepath.Join(dir, storedName), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write: %w", err)
	}
	return storedName, nil
}

// URL builds the public path for a stored file.
func (l *Local) URL(hireID uuid.UUID, storedName string) string {
	return l.BaseURL + "/uploads/" + hireID.String() + "/" + storedName
}
