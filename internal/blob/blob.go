// Package blob stores binary artifacts: uploaded RFQ source files and
// generated purchase orders. Keys are slash-separated relative paths such as
// "uploads/<rfq-id>/drawing.pdf" or "po/<quote-id>.pdf".
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver names a storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("blob: not found")

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a flat key/value store for binary objects. Put overwrites.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Config selects and configures a backend.
type Config struct {
	Driver string
	Dir    string
	S3     S3Config
}

// Open returns the store named by cfg.Driver. An empty driver means the
// filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(cfg.Driver) {
	case "", DriverFilesystem:
		return NewFS(cfg.Dir)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.Driver)
	}
}

// UploadKey is the key for a source file attached to an RFQ.
func UploadKey(rfqID, name string) string {
	return "uploads/" + rfqID + "/" + path.Base(strings.ReplaceAll(name, "\\", "/"))
}

// PurchaseOrderKey is the key of the generated PDF for a quote.
func PurchaseOrderKey(quoteID string) string {
	return "po/" + quoteID + ".pdf"
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	return path.Clean(key), nil
}

// ReadAll fetches a blob fully into memory.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, Info, error) {
	info, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, Info{}, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, Info{}, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return data, info, nil
}
