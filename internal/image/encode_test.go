package image

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"ascii", []byte("ice sculpture")},
		{"binary", []byte{0x00, 0xFF, 0x10, 0x80, 0x7F}},
		{"png header", pngHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestEncodeFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	want := append(append([]byte{}, jpegHeader...), 1, 2, 3, 4)
	require.NoError(t, os.WriteFile(path, want, 0o600))

	encoded, err := EncodeFile(path)
	require.NoError(t, err)

	got, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncodeFile_Missing(t *testing.T) {
	_, err := EncodeFile(filepath.Join(t.TempDir(), "nope.jpg"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("not base64!!")
	assert.Error(t, err)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,QUJD", DataURL("image/png", "QUJD"))
	assert.Equal(t, "data:image/jpeg;base64,QUJD", DataURL("", "QUJD"))
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", pngHeader, "image/png"},
		{"jpeg", jpegHeader, "image/jpeg"},
		{"gif", []byte("GIF89a......"), "image/gif"},
		{"text falls back", []byte("hello"), DefaultMIME},
		{"empty falls back", nil, DefaultMIME},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMIME(tt.data))
		})
	}
}
