package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskStore writes images under a base directory and exposes them through a
// public/ relative path, the same layout the upload directory always had.
type DiskStore struct {
	BaseDir string
}

func NewDiskStore(baseDir string) *DiskStore {
	if baseDir == "" {
		baseDir = "uploads"
	}
	return &DiskStore{BaseDir: baseDir}
}

func (d *DiskStore) Upload(ctx context.Context, data []byte, folder, name, contentType string) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	// prefix with a timestamp so resubmissions don't overwrite each other
	fname := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(name))
	dir := filepath.Join(d.BaseDir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Stored{}, fmt.Errorf("%w: mkdir: %v", ErrStorage, err)
	}
	full := filepath.Join(dir, fname)
	if err := os.WriteFile(full, data, 0644); err != nil {
		return Stored{}, fmt.Errorf("%w: write: %v", ErrStorage, err)
	}
	return Stored{
		URL:       "public/" + folder + "/" + fname,
		LocalPath: full,
	}, nil
}
