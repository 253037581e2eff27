package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/utils"

	"google.golang.org/genai"
)

const (
	// 生成结果固定请求 PNG
	generateOutputMimeType = "image/png"
	// 日志中 prompt 的最大长度
	logPromptMax = 120
)

var (
	// ErrUninitialized 会话未初始化或已关闭
	ErrUninitialized = errors.New("AI client has not been initialized, please enter an API key")
	// ErrEmptyAPIKey API Key 为空
	ErrEmptyAPIKey = errors.New("API key is required")
	// ErrCustomAspectRatio 文生图不支持自定义尺寸
	ErrCustomAspectRatio = errors.New("custom aspect ratio is not supported for image generation")
	// ErrNoImages 文生图响应中没有图片
	ErrNoImages = errors.New("image generation failed, no images returned")
)

// modelsAPI genai.Models 中用到的两个方法，测试时可替换
type modelsAPI interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config Gemini 客户端配置
type Config struct {
	BaseURL           string        // 自定义 Base URL，如果为空则使用默认值
	GenerateModelName string        // 文生图模型，例如 imagen-4.0-generate-001
	EditModelName     string        // 图片编辑模型，例如 gemini-2.5-flash-image-preview
	Timeout           time.Duration // 单次请求超时，0 表示不额外限制
}

// NewConfigFromCommon 从应用配置创建 Gemini 配置
func NewConfigFromCommon(cfg *common.Config) Config {
	return Config{
		BaseURL:           cfg.GenAIBaseURL,
		GenerateModelName: cfg.GenAIGenModelName,
		EditModelName:     cfg.GenAIEditModelName,
		Timeout:           time.Duration(cfg.GenAITimeoutSeconds) * time.Second,
	}
}

// withDefaults 补全未配置的模型名称
func (c Config) withDefaults() Config {
	if c.GenerateModelName == "" {
		c.GenerateModelName = common.DefaultGenModelName
	}
	if c.EditModelName == "" {
		c.EditModelName = common.DefaultEditModelName
	}
	return c
}

// Session 显式持有的 GenAI 会话。由 NewSession 创建，Close 后所有操作返回 ErrUninitialized
type Session struct {
	mu        sync.RWMutex
	models    modelsAPI
	genModel  string
	editModel string
	timeout   time.Duration
}

// NewSession 用 API Key 创建会话。不会发起网络请求，Key 是否有效要等第一次调用才知道
func NewSession(cfg Config, apiKey string) (*Session, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newSession(client.Models, cfg), nil
}

func newSession(models modelsAPI, cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		models:    models,
		genModel:  cfg.GenerateModelName,
		editModel: cfg.EditModelName,
		timeout:   cfg.Timeout,
	}
}

// Close 销毁会话（genai.Client 本身不需要显式关闭）
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.models = nil
	s.mu.Unlock()
	return nil
}

// acquire 返回可用的 models，会话为空或已关闭时报错
func (s *Session) acquire() (modelsAPI, error) {
	if s == nil {
		return nil, ErrUninitialized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.models == nil {
		return nil, ErrUninitialized
	}
	return s.models, nil
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// GenerateImage 文生图：请求一张 PNG 图片
func (s *Session) GenerateImage(ctx context.Context, prompt string, aspectRatio string) (string, error) {
	models, err := s.acquire()
	if err != nil {
		return "", err
	}
	if aspectRatio == AspectRatioCustom {
		return "", ErrCustomAspectRatio
	}
	if !IsFixedAspectRatio(aspectRatio) {
		return "", fmt.Errorf("unsupported aspect ratio %q", aspectRatio)
	}

	common.WithFields(map[string]interface{}{
		"model":        s.genModel,
		"prompt":       utils.TruncateForLog(prompt, logPromptMax),
		"aspect_ratio": aspectRatio,
	}).Debug("Starting image generation")

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := models.GenerateImages(ctx, s.genModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: generateOutputMimeType,
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"model":        s.genModel,
			"aspect_ratio": aspectRatio,
		}).Error("Failed to generate image from Gemini API")
		return "", fmt.Errorf("failed to generate image: %w", err)
	}

	if result == nil || len(result.GeneratedImages) == 0 {
		common.Error("No images in Gemini generate response")
		return "", ErrNoImages
	}
	generated := result.GeneratedImages[0]
	if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		common.Error("First generated image carries no bytes")
		return "", ErrNoImages
	}

	mimeType := generated.Image.MIMEType
	if mimeType == "" {
		mimeType = generateOutputMimeType
	}

	common.WithFields(map[string]interface{}{
		"model":     s.genModel,
		"mime_type": mimeType,
		"size":      len(generated.Image.ImageBytes),
	}).Debug("Image generated successfully")

	return utils.EncodeDataURI(mimeType, generated.Image.ImageBytes), nil
}

// TransformImage 把图片扩展到目标比例或像素尺寸，原有内容保持不变
func (s *Session) TransformImage(ctx context.Context, imageDataURI string, mimeType string, targetFormat string) (string, error) {
	instruction, err := BuildTransformInstruction(targetFormat)
	if err != nil {
		return "", err
	}
	return s.editImage(ctx, "transform", imageDataURI, mimeType, instruction)
}

// EnhanceImage 提升图片质量
func (s *Session) EnhanceImage(ctx context.Context, imageDataURI string, mimeType string) (string, error) {
	return s.editImage(ctx, "enhance", imageDataURI, mimeType, EnhanceInstruction)
}

// editImage 图片编辑：图片 + 指令，同时请求 IMAGE 和 TEXT 两种模态
func (s *Session) editImage(ctx context.Context, operation string, imageDataURI string, mimeType string, instruction string) (string, error) {
	models, err := s.acquire()
	if err != nil {
		return "", err
	}

	_, imageData, err := utils.DecodeDataURI(imageDataURI)
	if err != nil {
		return "", fmt.Errorf("invalid source image: %w", err)
	}

	common.WithFields(map[string]interface{}{
		"model":     s.editModel,
		"operation": operation,
		"mime_type": mimeType,
		"size":      len(imageData),
	}).Debug("Starting image editing")

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{
					InlineData: &genai.Blob{
						Data:     imageData,
						MIMEType: mimeType,
					},
				},
				{Text: instruction},
			},
		},
	}

	result, err := models.GenerateContent(ctx, s.editModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage), string(genai.ModalityText)},
	})
	if err != nil {
		common.WithError(err).WithFields(map[string]interface{}{
			"model":     s.editModel,
			"operation": operation,
		}).Error("Failed to edit image from Gemini API")
		return "", fmt.Errorf("failed to %s image: %w", operation, err)
	}

	imageResult, err := ExtractInlineImage(result)
	if err != nil {
		common.WithError(err).WithField("operation", operation).Error("No edited image data found in Gemini response")
		return "", err
	}

	common.WithFields(map[string]interface{}{
		"model":     s.editModel,
		"operation": operation,
	}).Debug("Image edited successfully")

	return imageResult, nil
}

var _ ImageIface = (*Session)(nil)
