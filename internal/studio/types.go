package studio

import (
	"fmt"
	"strings"

	"github.com/NeuroVisionAG/Nano-Format/internal/genai/gemini"
)

// Mode 操作模式
type Mode string

const (
	ModeGenerate  Mode = "generate"
	ModeTransform Mode = "transform"
)

// AspectRatio 固定比例，或只在 transform 模式下可用的 custom
type AspectRatio string

const (
	Ratio16x9   AspectRatio = "16:9"
	Ratio4x3    AspectRatio = "4:3"
	Ratio1x1    AspectRatio = "1:1"
	Ratio3x4    AspectRatio = "3:4"
	Ratio9x16   AspectRatio = "9:16"
	RatioCustom AspectRatio = gemini.AspectRatioCustom
)

// Status 请求状态
type Status string

const (
	StatusIdle     Status = "idle"
	StatusInFlight Status = "in_flight"
	StatusFailed   Status = "failed"
)

const (
	defaultCustomWidth  = "1024"
	defaultCustomHeight = "768"
	// 无法从结果中解析类型时假定为 PNG
	fallbackMimeType = "image/png"
)

// ParseMode 解析模式，不区分大小写
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeGenerate:
		return ModeGenerate, nil
	case ModeTransform:
		return ModeTransform, nil
	default:
		return "", validationError(fmt.Sprintf("Unknown mode %q.", s))
	}
}

// ParseAspectRatio 解析比例
func ParseAspectRatio(s string) (AspectRatio, error) {
	r := strings.ToLower(strings.TrimSpace(s))
	if r == string(RatioCustom) || gemini.IsFixedAspectRatio(r) {
		return AspectRatio(r), nil
	}
	return "", validationError(fmt.Sprintf("Unknown aspect ratio %q.", s))
}

// ImageData 规范图片：后续 transform 的输入，带明确的 MIME 类型
type ImageData struct {
	DataURI  string `json:"data_uri"`
	MIMEType string `json:"mime_type"`
}

// State 界面可见的全部状态
type State struct {
	Mode             Mode        `json:"mode"`
	Prompt           string      `json:"prompt"`
	AspectRatio      AspectRatio `json:"aspect_ratio"`
	CustomWidth      string      `json:"custom_width"`
	CustomHeight     string      `json:"custom_height"`
	ImageSrc         string      `json:"image_src,omitempty"`
	Original         *ImageData  `json:"original,omitempty"`
	UploadedFileName string      `json:"uploaded_file_name,omitempty"`
	IsLoading        bool        `json:"is_loading"`
	LoadingMessage   string      `json:"loading_message,omitempty"`
	Error            string      `json:"error,omitempty"`
	APIReady         bool        `json:"api_ready"`
}

// Status 由 IsLoading 与 Error 推导出的请求状态
func (s State) Status() Status {
	switch {
	case s.IsLoading:
		return StatusInFlight
	case s.Error != "":
		return StatusFailed
	default:
		return StatusIdle
	}
}

func defaultState() State {
	return State{
		Mode:         ModeGenerate,
		AspectRatio:  Ratio1x1,
		CustomWidth:  defaultCustomWidth,
		CustomHeight: defaultCustomHeight,
	}
}
