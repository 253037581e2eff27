package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestDataURIRoundTrip(t *testing.T) {
	original := []byte{0x00, 0xff, 0x10, 0x80, 'a', 'b', 'c'}

	uri := EncodeDataURI("image/webp", original)
	require.True(t, strings.HasPrefix(uri, "data:image/webp;base64,"))

	mimeType, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)
	assert.Equal(t, original, data)
}

func TestMediaTypeOf(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{name: "png", uri: "data:image/png;base64,AAAA", want: "image/png"},
		{name: "jpeg", uri: "data:image/jpeg;base64,", want: "image/jpeg"},
		{name: "missing prefix", uri: "image/png;base64,AAAA", wantErr: true},
		{name: "missing comma", uri: "data:image/png;base64", wantErr: true},
		{name: "not base64", uri: "data:text/plain,hello", wantErr: true},
		{name: "empty type", uri: "data:;base64,AAAA", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MediaTypeOf(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDataURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeDataURIBadBase64(t *testing.T) {
	_, _, err := DecodeDataURI("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestDetectImageMimeType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectImageMimeType("image/jpeg", pngHeader))
	assert.Equal(t, "image/png", DetectImageMimeType("", pngHeader))
	assert.Equal(t, "image/png", DetectImageMimeType("application/octet-stream", pngHeader))
	assert.False(t, IsImageMimeType(DetectImageMimeType("", []byte("just some text"))))
}

func TestFileNames(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	assert.Equal(t, "images/2026-03-14/", GenerateImagePath(now))
	assert.Equal(t, "ai-image-1773500966000.png", DownloadFileName("image/png", now))
	assert.Equal(t, "ai-image-1773500966000.jpg", DownloadFileName("image/jpeg", now))

	name := GenerateImageFileName("image/webp", now)
	assert.True(t, strings.HasSuffix(name, ".webp"))
	assert.Contains(t, name, "_1773500966_")
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "short", TruncateForLog("short", 10))
	assert.Equal(t, "abcdefg...", TruncateForLog("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", TruncateForLog("abcdef", 2))
}
