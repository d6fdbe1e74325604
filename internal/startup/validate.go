// Package startup provides startup validation and initialization for icecarve.
//
// It checks configuration that would otherwise only fail on the first
// request, then wires the components together.
package startup

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hurricanerix/icecarve/internal/image"
)

var (
	// ErrInvalidBaseURL is returned when the model provider URL is unusable
	ErrInvalidBaseURL = errors.New("invalid model provider base URL")
	// ErrUploadDirUnavailable is returned when uploads cannot be staged
	ErrUploadDirUnavailable = errors.New("upload directory unavailable")
)

// ValidateBaseURL checks that baseURL is an absolute http or https URL.
// The provider is not contacted.
func ValidateBaseURL(baseURL string) error {
	// SECURITY: Parse and validate base URL to prevent SSRF
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}

	// SECURITY: Validate scheme is http or https only
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: URL must use http or https scheme, got: %q", ErrInvalidBaseURL, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidBaseURL)
	}

	// SECURITY: Credentials belong in the API key, not the URL
	if parsedURL.User != nil {
		return fmt.Errorf("%w: URL must not contain credentials", ErrInvalidBaseURL)
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("%w: URL must not contain a query or fragment", ErrInvalidBaseURL)
	}

	return nil
}

// EnsureUploadDir creates the upload directory if missing and checks that
// it is writable.
func EnsureUploadDir(uploads *image.Uploads) error {
	if err := uploads.EnsureDir(); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadDirUnavailable, err)
	}

	check, err := os.CreateTemp(uploads.Dir(), ".check-*")
	if err != nil {
		return fmt.Errorf("%w: %s is not writable: %v", ErrUploadDirUnavailable, uploads.Dir(), err)
	}
	name := check.Name()
	_ = check.Close()
	if err := os.Remove(filepath.Clean(name)); err != nil {
		return fmt.Errorf("%w: %v", ErrUploadDirUnavailable, err)
	}

	return nil
}
