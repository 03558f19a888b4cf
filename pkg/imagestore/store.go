// Package imagestore persists uploaded images and hands back a reference
// URL. The disk store serves development; the S3 store talks to any
// S3-compatible host in production.
package imagestore

import (
	"context"
	"errors"
)

// ErrStorage wraps any upload failure so handlers can map it to a gateway
// error without inspecting backend-specific causes.
var ErrStorage = errors.New("image storage failed")

// Stored describes where an uploaded image ended up. LocalPath is only set
// by the disk store; the reverify worker uses it to re-read images without
// a round trip to the object host.
type Stored struct {
	URL       string
	LocalPath string
}

// Store uploads raw image bytes into a folder under a caller-chosen name.
type Store interface {
	Upload(ctx context.Context, data []byte, folder, name, contentType string) (Stored, error)
}
