package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/studio"
	"github.com/NeuroVisionAG/Nano-Format/internal/utils"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// 结果中 data URI 的最大展示长度
const maxImagePreview = 80

// StudioTools MCP tools 的处理函数
type StudioTools struct {
	studio      *studio.Studio
	downloadDir string
}

// NewStudioTools 创建处理函数集合，downloadDir 是 studio_download_image 的默认目录
func NewStudioTools(st *studio.Studio, downloadDir string) *StudioTools {
	return &StudioTools{studio: st, downloadDir: downloadDir}
}

// RegisterStudioTools 注册图片工作室的 MCP tools
func RegisterStudioTools(s *server.MCPServer, t *StudioTools) error {
	ratioDesc := mcp.Description("Aspect ratio: 16:9, 4:3, 1:1, 3:4, 9:16, or custom (transform mode only)")

	s.AddTool(mcp.NewTool(
		"studio_set_api_key",
		mcp.WithDescription("Validate and store the Gemini API key used for all image requests."),
		mcp.WithString("api_key", mcp.Required(), mcp.Description("Gemini API key")),
	), t.SetAPIKey)

	s.AddTool(mcp.NewTool(
		"studio_change_api_key",
		mcp.WithDescription("Forget the stored API key and discard the current session."),
	), t.ChangeAPIKey)

	s.AddTool(mcp.NewTool(
		"studio_state",
		mcp.WithDescription("Show the current studio state: mode, prompt, aspect ratio, image and error."),
	), t.State)

	s.AddTool(mcp.NewTool(
		"studio_configure",
		mcp.WithDescription("Update studio settings. Only the given fields change."),
		mcp.WithString("mode", mcp.Description("generate or transform")),
		mcp.WithString("prompt", mcp.Description("Text prompt for generate mode")),
		mcp.WithString("aspect_ratio", ratioDesc),
		mcp.WithString("custom_width", mcp.Description("Target width in pixels for the custom ratio")),
		mcp.WithString("custom_height", mcp.Description("Target height in pixels for the custom ratio")),
	), t.Configure)

	s.AddTool(mcp.NewTool(
		"studio_generate",
		mcp.WithDescription("Generate a new image from the prompt. Switches to generate mode."),
		mcp.WithString("prompt", mcp.Description("Text prompt, defaults to the stored prompt")),
		mcp.WithString("aspect_ratio", ratioDesc),
	), t.Generate)

	s.AddTool(mcp.NewTool(
		"studio_transform",
		mcp.WithDescription("Outpaint the current image to a new aspect ratio or pixel size. Switches to transform mode."),
		mcp.WithString("aspect_ratio", ratioDesc),
		mcp.WithString("custom_width", mcp.Description("Target width in pixels for the custom ratio")),
		mcp.WithString("custom_height", mcp.Description("Target height in pixels for the custom ratio")),
	), t.Transform)

	s.AddTool(mcp.NewTool(
		"studio_enhance",
		mcp.WithDescription("Increase the resolution and sharpness of the displayed image without changing its content."),
	), t.Enhance)

	s.AddTool(mcp.NewTool(
		"studio_upload_image",
		mcp.WithDescription("Load a local image file as the source for transform and enhance."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the image file")),
	), t.UploadImage)

	s.AddTool(mcp.NewTool(
		"studio_download_image",
		mcp.WithDescription("Save the displayed image as ai-image-<timestamp>.<ext>."),
		mcp.WithString("dir", mcp.Description("Target directory, defaults to DOWNLOAD_DIR")),
	), t.DownloadImage)

	s.AddTool(mcp.NewTool(
		"studio_publish_image",
		mcp.WithDescription("Upload the displayed image to object storage and return its URL."),
	), t.PublishImage)

	s.AddTool(mcp.NewTool(
		"studio_dismiss_error",
		mcp.WithDescription("Clear the current error message."),
	), t.DismissError)

	return nil
}

// SetAPIKey studio_set_api_key
func (t *StudioTools) SetAPIKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("api_key")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("api_key parameter is required: %v", err)), nil
	}
	if err := t.studio.SaveAPIKey(ctx, key); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("API key saved. The studio is ready."), nil
}

// ChangeAPIKey studio_change_api_key
func (t *StudioTools) ChangeAPIKey(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.studio.ChangeAPIKey(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("API key removed. Set a new key with studio_set_api_key."), nil
}

// State studio_state
func (t *StudioTools) State(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatState(t.studio.Snapshot())), nil
}

// Configure studio_configure
func (t *StudioTools) Configure(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.applySettings(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(t.studio.Snapshot())), nil
}

// Generate studio_generate
func (t *StudioTools) Generate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.studio.SetMode(string(studio.ModeGenerate)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.applySettings(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.studio.Generate(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate image: %v", err)), nil
	}
	return t.imageResult("Generated image"), nil
}

// Transform studio_transform
func (t *StudioTools) Transform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.studio.SetMode(string(studio.ModeTransform)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.applySettings(req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.studio.Transform(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to transform image: %v", err)), nil
	}
	return t.imageResult("Transformed image"), nil
}

// Enhance studio_enhance
func (t *StudioTools) Enhance(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.studio.Enhance(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to enhance image: %v", err)), nil
	}
	return t.imageResult("Enhanced image"), nil
}

// UploadImage studio_upload_image
func (t *StudioTools) UploadImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("path parameter is required: %v", err)), nil
	}
	if err := t.studio.UploadFile(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return t.imageResult("Uploaded image"), nil
}

// DownloadImage studio_download_image
func (t *StudioTools) DownloadImage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := req.GetString("dir", t.downloadDir)
	if dir == "" {
		dir = "."
	}
	path, err := t.studio.SaveDownload(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved image: %s", path)), nil
}

// PublishImage studio_publish_image
func (t *StudioTools) PublishImage(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := t.studio.Publish(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to publish image: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Published image: %s", url)), nil
}

// DismissError studio_dismiss_error
func (t *StudioTools) DismissError(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.studio.DismissError()
	return mcp.NewToolResultText("Error dismissed."), nil
}

// applySettings 只修改请求中出现的字段。mode 先于 aspect_ratio，保证 custom 的判断基于新模式
func (t *StudioTools) applySettings(req mcp.CallToolRequest) error {
	args := req.GetArguments()

	if mode, ok := stringArg(args, "mode"); ok {
		if err := t.studio.SetMode(mode); err != nil {
			return err
		}
	}
	if prompt, ok := stringArg(args, "prompt"); ok {
		t.studio.SetPrompt(prompt)
	}
	if ratio, ok := stringArg(args, "aspect_ratio"); ok {
		if err := t.studio.SetAspectRatio(ratio); err != nil {
			return err
		}
	}

	width, hasWidth := stringArg(args, "custom_width")
	height, hasHeight := stringArg(args, "custom_height")
	if hasWidth || hasHeight {
		current := t.studio.Snapshot()
		if !hasWidth {
			width = current.CustomWidth
		}
		if !hasHeight {
			height = current.CustomHeight
		}
		t.studio.SetCustomSize(width, height)
	}
	return nil
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	default:
		return fmt.Sprint(val), true
	}
}

func (t *StudioTools) imageResult(label string) *mcp.CallToolResult {
	state := t.studio.Snapshot()
	mimeType := ""
	if state.Original != nil {
		mimeType = state.Original.MIMEType
	}
	common.WithField("mime_type", mimeType).Debug(label)
	return mcp.NewToolResultText(fmt.Sprintf("%s (%s): %s", label, mimeType, utils.TruncateForLog(state.ImageSrc, maxImagePreview)))
}

// formatState 状态的文本表示
func formatState(state studio.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\n", state.Status())
	fmt.Fprintf(&b, "api_ready: %t\n", state.APIReady)
	fmt.Fprintf(&b, "mode: %s\n", state.Mode)
	fmt.Fprintf(&b, "prompt: %s\n", state.Prompt)
	fmt.Fprintf(&b, "aspect_ratio: %s\n", state.AspectRatio)
	if state.AspectRatio == studio.RatioCustom {
		fmt.Fprintf(&b, "custom_size: %sx%s\n", state.CustomWidth, state.CustomHeight)
	}
	if state.UploadedFileName != "" {
		fmt.Fprintf(&b, "uploaded_file: %s\n", state.UploadedFileName)
	}
	if state.ImageSrc != "" {
		fmt.Fprintf(&b, "image: %s\n", utils.TruncateForLog(state.ImageSrc, maxImagePreview))
	} else {
		b.WriteString("image: none\n")
	}
	if state.IsLoading {
		fmt.Fprintf(&b, "loading: %s\n", state.LoadingMessage)
	}
	if state.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", state.Error)
	}
	return strings.TrimRight(b.String(), "\n")
}
