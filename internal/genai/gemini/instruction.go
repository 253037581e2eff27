package gemini

import (
	"fmt"
	"strconv"
	"strings"
)

// AspectRatioCustom 自定义像素尺寸，只用于扩展图片
const AspectRatioCustom = "custom"

// FixedAspectRatios 文生图支持的固定比例
var FixedAspectRatios = []string{"16:9", "4:3", "1:1", "3:4", "9:16"}

// EnhanceInstruction 提升画质的固定指令
const EnhanceInstruction = "Enhance the quality of this image. Increase its resolution, sharpness, and detail without altering the content. " +
	"Correct any artifacts, noise, or blurriness to make it look photorealistic and high-definition."

// transformSuffix 扩展图片时要求保留原内容并无缝补全
const transformSuffix = "Do not stretch the original content. Intelligently fill in the new areas to match the existing style and content of the image, " +
	"creating a seamless, larger picture."

// IsFixedAspectRatio 是否为支持的固定比例
func IsFixedAspectRatio(ratio string) bool {
	for _, r := range FixedAspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

// ParseDimensions 解析 WIDTHxHEIGHT，宽高必须是正整数
func ParseDimensions(target string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(target), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid target format %q, expected WIDTHxHEIGHT", target)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid width in target format %q", target)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid height in target format %q", target)
	}
	return width, height, nil
}

// BuildTransformInstruction 根据目标格式生成扩展指令。
// 含 ":" 视为比例，否则视为 WIDTHxHEIGHT 像素尺寸
func BuildTransformInstruction(targetFormat string) (string, error) {
	var head string
	if strings.Contains(targetFormat, ":") {
		head = fmt.Sprintf("Extend this image to fit a %s aspect ratio.", targetFormat)
	} else {
		width, height, err := ParseDimensions(targetFormat)
		if err != nil {
			return "", err
		}
		head = fmt.Sprintf("Extend this image to a resolution of %d by %d pixels.", width, height)
	}
	return head + " " + transformSuffix, nil
}
