package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTransformInstruction(t *testing.T) {
	tests := []struct {
		target  string
		prefix  string
		wantErr bool
	}{
		{target: "4:3", prefix: "Extend this image to fit a 4:3 aspect ratio."},
		{target: "9:16", prefix: "Extend this image to fit a 9:16 aspect ratio."},
		{target: "1024x768", prefix: "Extend this image to a resolution of 1024 by 768 pixels."},
		{target: "0x768", wantErr: true},
		{target: "1024x", wantErr: true},
		{target: "wide", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := BuildTransformInstruction(tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.prefix+" "+transformSuffix, got)
		})
	}
}

func TestIsFixedAspectRatio(t *testing.T) {
	for _, ratio := range FixedAspectRatios {
		assert.True(t, IsFixedAspectRatio(ratio), ratio)
	}
	assert.False(t, IsFixedAspectRatio(AspectRatioCustom))
	assert.False(t, IsFixedAspectRatio("2:1"))
}

func TestParseDimensions(t *testing.T) {
	w, h, err := ParseDimensions("800x600")
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	_, _, err = ParseDimensions("800x-1")
	assert.Error(t, err)
}
