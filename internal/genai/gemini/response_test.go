package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestExtractInlineImage(t *testing.T) {
	got, err := ExtractInlineImage(inlineResponse(
		&genai.Part{Text: "caption"},
		&genai.Part{InlineData: &genai.Blob{Data: []byte("first"), MIMEType: "image/jpeg"}},
		&genai.Part{InlineData: &genai.Blob{Data: []byte("second"), MIMEType: "image/png"}},
	))
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,Zmlyc3Q=", got)
}

func TestExtractInlineImageOnlyFirstCandidate(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []*genai.Part{{Text: "no image"}}}},
		{Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{Data: []byte("x"), MIMEType: "image/png"}}}}},
	}}
	_, err := ExtractInlineImage(resp)
	assert.ErrorIs(t, err, ErrNoImageData)
}

func TestExtractInlineImageFailures(t *testing.T) {
	_, err := ExtractInlineImage(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = ExtractInlineImage(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = ExtractInlineImage(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.ErrorIs(t, err, ErrNoImageData)
}
