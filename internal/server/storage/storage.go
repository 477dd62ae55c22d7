// Package storage keeps uploaded incident images, either on the local disk
// or in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// ImageStore persists uploaded images under server-generated names.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error
	// Delete removes name; a missing object is not an error.
	Delete(ctx context.Context, name string) error
	// Serve writes the image (or a redirect to it) to w. It returns
	// common.ErrorNotFound when the store knows name does not exist.
	Serve(w http.ResponseWriter, r *http.Request, name string) error
}

// NewImageName returns a unique name of the form image-<unix-ms>-<rand><ext>.
func NewImageName(ext string) string {
	return fmt.Sprintf("image-%d-%d%s", time.Now().UnixMilli(), rand.Intn(1e9), ext)
}
