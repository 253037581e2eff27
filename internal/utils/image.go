package utils

import (
	"crypto/rand"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DetectImageMimeType 确定上传文件的 MIME 类型。
// 声明的类型是 image/* 时直接采用，否则根据文件内容嗅探
func DetectImageMimeType(declared string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	detected := mimetype.Detect(data)
	mediaType, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return detected.String()
	}
	return mediaType
}

// IsImageMimeType 是否为图片类型
func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// GenerateImagePath 生成图片路径：images/yyyy-MM-dd/
func GenerateImagePath(now time.Time) string {
	return fmt.Sprintf("images/%s/", now.Format("2006-01-02"))
}

// GenerateImageFileName 生成对象存储文件名：{uuid}_{timestamp}_{random}.ext
func GenerateImageFileName(mimeType string, now time.Time) string {
	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)

	return fmt.Sprintf("%s_%d_%x%s", uuid.New().String(), now.Unix(), randomBytes, GetExtensionFromMimeType(mimeType))
}

// DownloadFileName 下载文件名：ai-image-{毫秒时间戳}.ext
func DownloadFileName(mimeType string, now time.Time) string {
	return fmt.Sprintf("ai-image-%d%s", now.UnixMilli(), GetExtensionFromMimeType(mimeType))
}

// GetExtensionFromMimeType 根据 MIME 类型获取文件扩展名（不区分大小写）
func GetExtensionFromMimeType(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".png" // 生成结果默认是 PNG
	}
}

// TruncateForLog 截断长字符串用于日志，避免打印过长内容（如 base64）
func TruncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
