package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// DefaultUploadDir is where uploads are staged before encoding.
	DefaultUploadDir = "static/uploads"

	// MaxUploadSize is the largest accepted upload (20MB).
	MaxUploadSize = 20 * 1024 * 1024
)

var (
	// ErrEmptyUpload indicates the uploaded file has no content
	ErrEmptyUpload = errors.New("uploaded image is empty")
	// ErrUploadTooLarge indicates the upload exceeds MaxUploadSize
	ErrUploadTooLarge = errors.New("uploaded image exceeds maximum size")
)

// Upload describes a staged upload on disk.
type Upload struct {
	Path string
	MIME string
	Size int
}

// Uploads stages uploaded images in a directory. Every upload gets its own
// file name, so concurrent requests never read each other's bytes.
type Uploads struct {
	dir string
}

// NewUploads creates an upload store rooted at dir.
// If dir is empty, DefaultUploadDir is used.
func NewUploads(dir string) *Uploads {
	if dir == "" {
		dir = DefaultUploadDir
	}
	return &Uploads{dir: dir}
}

// Dir returns the upload directory.
func (u *Uploads) Dir() string {
	return u.dir
}

// EnsureDir creates the upload directory if it does not exist.
func (u *Uploads) EnsureDir() error {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// Save copies r to a new uniquely named file in the upload directory.
// The write goes to a temp file first and is renamed into place.
func (u *Uploads) Save(r io.Reader) (Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return Upload{}, ErrEmptyUpload
	}
	if len(data) > MaxUploadSize {
		return Upload{}, ErrUploadTooLarge
	}

	mime := DetectMIME(data)
	path := filepath.Join(u.dir, "upload-"+uuid.NewString()+extensionFor(mime))
	tempPath := path + ".tmp"

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to save upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		_ = os.Remove(tempPath)
		return Upload{}, fmt.Errorf("failed to save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return Upload{}, fmt.Errorf("failed to save upload: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return Upload{}, fmt.Errorf("failed to commit upload: %w", err)
	}

	return Upload{Path: path, MIME: mime, Size: len(data)}, nil
}

// Remove deletes a staged upload. Missing files are not an error.
func (u *Uploads) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}
