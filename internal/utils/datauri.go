package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI 不是 data:<mime>;base64,<data> 格式
var ErrInvalidDataURI = errors.New("invalid data URI format")

// EncodeDataURI 把二进制图片编码为带 MIME 类型的 base64 data URI
func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// splitDataURI 拆分 data URI，返回 MIME 类型和 base64 部分
func splitDataURI(uri string) (string, string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return "", "", ErrInvalidDataURI
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 || mimeType == "" {
		return "", "", ErrInvalidDataURI
	}
	return mimeType, payload, nil
}

// MediaTypeOf 从 data URI 中解析 MIME 类型
func MediaTypeOf(uri string) (string, error) {
	mimeType, _, err := splitDataURI(uri)
	return mimeType, err
}

// DecodeDataURI 解析 data URI 并解码出原始字节
func DecodeDataURI(uri string) (string, []byte, error) {
	mimeType, payload, err := splitDataURI(uri)
	if err != nil {
		return "", nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 data: %w", err)
	}
	return mimeType, data, nil
}
