package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/NeuroVisionAG/Nano-Format/internal/utils"
)

// fakeModels 记录请求并返回预设响应
type fakeModels struct {
	imagesResp  *genai.GenerateImagesResponse
	contentResp *genai.GenerateContentResponse
	err         error

	calls         int
	model         string
	prompt        string
	imagesConfig  *genai.GenerateImagesConfig
	contents      []*genai.Content
	contentConfig *genai.GenerateContentConfig
	deadline      bool
}

func (f *fakeModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.calls++
	f.model = model
	f.prompt = prompt
	f.imagesConfig = config
	_, f.deadline = ctx.Deadline()
	return f.imagesResp, f.err
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.contentConfig = config
	_, f.deadline = ctx.Deadline()
	return f.contentResp, f.err
}

func inlineResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

var sourceURI = utils.EncodeDataURI("image/jpeg", []byte("source-bytes"))

func TestGenerateImage(t *testing.T) {
	fake := &fakeModels{imagesResp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte("png-bytes")}}},
	}}
	session := newSession(fake, Config{})

	got, err := session.GenerateImage(context.Background(), "a red fox", "1:1")
	require.NoError(t, err)

	assert.Equal(t, utils.EncodeDataURI("image/png", []byte("png-bytes")), got)
	assert.Equal(t, "imagen-4.0-generate-001", fake.model)
	assert.Equal(t, "a red fox", fake.prompt)
	require.NotNil(t, fake.imagesConfig)
	assert.EqualValues(t, 1, fake.imagesConfig.NumberOfImages)
	assert.Equal(t, "image/png", fake.imagesConfig.OutputMIMEType)
	assert.Equal(t, "1:1", fake.imagesConfig.AspectRatio)
	assert.False(t, fake.deadline, "no timeout configured")
}

func TestGenerateImagePrefersReportedMimeType(t *testing.T) {
	fake := &fakeModels{imagesResp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte("jpg"), MIMEType: "image/jpeg"}}},
	}}
	got, err := newSession(fake, Config{}).GenerateImage(context.Background(), "x", "16:9")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/jpeg;base64,"))
}

func TestGenerateImageFailures(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeModels
		ratio   string
		wantErr error
		calls   int
	}{
		{name: "custom ratio", fake: &fakeModels{}, ratio: "custom", wantErr: ErrCustomAspectRatio},
		{name: "unknown ratio", fake: &fakeModels{}, ratio: "2:1"},
		{name: "no images", fake: &fakeModels{imagesResp: &genai.GenerateImagesResponse{}}, ratio: "1:1", wantErr: ErrNoImages, calls: 1},
		{name: "nil response", fake: &fakeModels{}, ratio: "1:1", wantErr: ErrNoImages, calls: 1},
		{name: "remote error", fake: &fakeModels{err: errors.New("quota exceeded")}, ratio: "1:1", calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newSession(tt.fake, Config{}).GenerateImage(context.Background(), "prompt", tt.ratio)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.calls, tt.fake.calls)
		})
	}
}

func TestTransformImageByRatio(t *testing.T) {
	fake := &fakeModels{contentResp: inlineResponse(
		&genai.Part{Text: "here you go"},
		&genai.Part{InlineData: &genai.Blob{Data: []byte("wide"), MIMEType: "image/webp"}},
	)}
	session := newSession(fake, Config{EditModelName: "edit-model"})

	got, err := session.TransformImage(context.Background(), sourceURI, "image/jpeg", "16:9")
	require.NoError(t, err)
	assert.Equal(t, utils.EncodeDataURI("image/webp", []byte("wide")), got)

	assert.Equal(t, "edit-model", fake.model)
	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, []byte("source-bytes"), parts[0].InlineData.Data)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MIMEType)
	assert.True(t, strings.HasPrefix(parts[1].Text, "Extend this image to fit a 16:9 aspect ratio."))
	assert.Contains(t, parts[1].Text, "Do not stretch the original content.")
	assert.Equal(t, []string{"IMAGE", "TEXT"}, fake.contentConfig.ResponseModalities)
}

func TestTransformImageByDimensions(t *testing.T) {
	fake := &fakeModels{contentResp: inlineResponse(&genai.Part{InlineData: &genai.Blob{Data: []byte("big"), MIMEType: "image/png"}})}

	_, err := newSession(fake, Config{}).TransformImage(context.Background(), sourceURI, "image/jpeg", "800x600")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fake.contents[0].Parts[1].Text, "Extend this image to a resolution of 800 by 600 pixels."))
}

func TestTransformImageInvalidTarget(t *testing.T) {
	fake := &fakeModels{}
	_, err := newSession(fake, Config{}).TransformImage(context.Background(), sourceURI, "image/jpeg", "800x0")
	assert.Error(t, err)
	assert.Zero(t, fake.calls)
}

func TestEnhanceImage(t *testing.T) {
	fake := &fakeModels{contentResp: inlineResponse(&genai.Part{InlineData: &genai.Blob{Data: []byte("sharp"), MIMEType: "image/png"}})}

	got, err := newSession(fake, Config{Timeout: time.Minute}).EnhanceImage(context.Background(), sourceURI, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, utils.EncodeDataURI("image/png", []byte("sharp")), got)
	assert.Equal(t, EnhanceInstruction, fake.contents[0].Parts[1].Text)
	assert.True(t, fake.deadline, "configured timeout applies to the call")
}

func TestEditImageNoImageData(t *testing.T) {
	fake := &fakeModels{contentResp: inlineResponse(&genai.Part{Text: "I cannot do that"})}

	_, err := newSession(fake, Config{}).EnhanceImage(context.Background(), sourceURI, "image/jpeg")
	assert.ErrorIs(t, err, ErrNoImageData)
	assert.Contains(t, err.Error(), "no image data found")
}

func TestEditImageRejectsBadSource(t *testing.T) {
	fake := &fakeModels{}
	_, err := newSession(fake, Config{}).EnhanceImage(context.Background(), "not-a-data-uri", "image/png")
	assert.ErrorIs(t, err, utils.ErrInvalidDataURI)
	assert.Zero(t, fake.calls)
}

func TestClosedSessionIsUninitialized(t *testing.T) {
	fake := &fakeModels{}
	session := newSession(fake, Config{})
	require.NoError(t, session.Close())

	_, err := session.GenerateImage(context.Background(), "x", "1:1")
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = session.TransformImage(context.Background(), sourceURI, "image/jpeg", "1:1")
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = session.EnhanceImage(context.Background(), sourceURI, "image/jpeg")
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.Zero(t, fake.calls)

	var nilSession *Session
	_, err = nilSession.GenerateImage(context.Background(), "x", "1:1")
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestNewSessionRequiresKey(t *testing.T) {
	_, err := NewSession(Config{}, "")
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	session, err := NewSession(Config{BaseURL: "http://127.0.0.1:1"}, "test-key")
	require.NoError(t, err)
	assert.NotNil(t, session)
}
