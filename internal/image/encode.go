// Package image prepares uploaded pictures for the vision model: it keeps
// uploads in a scratch directory and encodes them as base64 data URLs.
package image

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// DefaultMIME is used when the upload's type cannot be sniffed.
const DefaultMIME = "image/jpeg"

// EncodeFile reads the file at path and returns its base64 encoding.
// The whole file is read into memory; callers bound the size on upload.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return Encode(data), nil
}

// Encode returns the standard base64 encoding of data.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode.
func Decode(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, nil
}

// DataURL embeds an encoded image in a data URL.
func DataURL(mime, encoded string) string {
	if mime == "" {
		mime = DefaultMIME
	}
	return "data:" + mime + ";base64," + encoded
}

// DetectMIME sniffs the image type from its first bytes.
// Anything that is not recognised as an image is reported as DefaultMIME.
func DetectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return DefaultMIME
	}
	return mime
}

// extensionFor returns the file extension used for a sniffed MIME type.
func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}
