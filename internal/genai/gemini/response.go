package gemini

import (
	"errors"

	"github.com/NeuroVisionAG/Nano-Format/internal/utils"

	"google.golang.org/genai"
)

var (
	// ErrNoCandidates 编辑响应中没有候选结果
	ErrNoCandidates = errors.New("image processing failed: no candidates returned")
	// ErrNoImageData 第一个候选结果中没有内联图片
	ErrNoImageData = errors.New("image processing failed: no image data found in response")
)

// ExtractInlineImage 在第一个候选结果中查找第一个内联图片，返回 data:<mime>;base64,<data>。
// 只看第一个候选，找不到直接失败，不重试
func ExtractInlineImage(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	candidate := result.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", ErrNoImageData
	}

	for _, part := range candidate.Content.Parts {
		if part == nil || part.InlineData == nil {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = generateOutputMimeType
		}
		return utils.EncodeDataURI(mimeType, part.InlineData.Data), nil
	}

	return "", ErrNoImageData
}
