package gemini

import "context"

// ImageIface 一个已初始化会话上可执行的三种图片操作，返回 data:<mime>;base64,<data>
type ImageIface interface {
	// GenerateImage 文生图，aspectRatio 只能是固定比例（16:9、4:3、1:1、3:4、9:16）
	GenerateImage(ctx context.Context, prompt string, aspectRatio string) (string, error)
	// TransformImage 扩展图片：targetFormat 含 ":" 时按比例扩展，否则按 WIDTHxHEIGHT 像素扩展
	TransformImage(ctx context.Context, imageDataURI string, mimeType string, targetFormat string) (string, error)
	// EnhanceImage 提升分辨率与清晰度，不改变内容
	EnhanceImage(ctx context.Context, imageDataURI string, mimeType string) (string, error)
}
