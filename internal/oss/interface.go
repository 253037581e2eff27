package oss

import "context"

// ObjectStore 对象存储接口
type ObjectStore interface {
	// PutObject 写入对象，已存在时覆盖
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
	// ObjectURL 对象的公开访问地址（不带签名）
	ObjectURL(bucket, key string) string
}
