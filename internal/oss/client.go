package oss

import (
	"context"
	"errors"
	"time"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/utils"
)

// ErrEmptyObject 没有可发布的内容
var ErrEmptyObject = errors.New("nothing to publish: image data is empty")

// ImagePublisher 把图片写入 images/yyyy-MM-dd/ 下并返回公开 URL
type ImagePublisher struct {
	store  ObjectStore
	bucket string
	now    func() time.Time
}

// NewImagePublisher 创建图片发布器
func NewImagePublisher(store ObjectStore, bucket string) *ImagePublisher {
	return &ImagePublisher{store: store, bucket: bucket, now: time.Now}
}

// NewPublisherFromConfig 根据 OSS_* 配置创建发布器，未配置 OSS 时返回 nil
func NewPublisherFromConfig(ctx context.Context, cfg *common.Config) (*ImagePublisher, error) {
	if !cfg.OSSEnabled() {
		return nil, nil
	}
	store, err := NewS3Store(ctx, S3Config{
		Endpoint:  cfg.OSSEndpoint,
		Region:    cfg.OSSRegion,
		AccessKey: cfg.OSSAccessKey,
		SecretKey: cfg.OSSSecretKey,
	})
	if err != nil {
		return nil, err
	}
	return NewImagePublisher(store, cfg.OSSBucket), nil
}

// Publish 上传图片，返回对象 URL
func (p *ImagePublisher) Publish(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}
	now := p.now()
	key := utils.GenerateImagePath(now) + utils.GenerateImageFileName(mimeType, now)

	if err := p.store.PutObject(ctx, p.bucket, key, data, mimeType); err != nil {
		return "", err
	}
	return p.store.ObjectURL(p.bucket, key), nil
}
