package oss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadTimeout = 60 * time.Second

// S3Config S3 兼容存储的连接配置
type S3Config struct {
	Endpoint  string // 例如 s3.amazonaws.com 或 oss-cn-hangzhou.aliyuncs.com，为空时使用 AWS 默认域名
	Region    string
	AccessKey string
	SecretKey string
}

// S3Store 基于 aws-sdk-go-v2 的 ObjectStore 实现
type S3Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	httpClient *http.Client
	endpoint   string
	region     string
}

// NewS3Store 创建 S3 客户端，不访问网络
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String("https://" + cfg.Endpoint)
		}
	})

	return &S3Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		httpClient: &http.Client{Timeout: uploadTimeout},
		endpoint:   cfg.Endpoint,
		region:     cfg.Region,
	}, nil
}

// PutObject 上传对象
func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	fields := map[string]interface{}{
		"bucket":       bucket,
		"key":          key,
		"content_type": contentType,
		"size":         len(body),
	}
	common.WithFields(fields).Debug("Uploading object")

	var err error
	if s.needsPresignedPut() {
		err = s.putPresigned(ctx, bucket, key, body, contentType)
	} else {
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
	}
	if err != nil {
		common.WithError(err).WithFields(fields).Error("Failed to upload object")
		return fmt.Errorf("failed to upload object: %w", err)
	}

	common.WithFields(fields).Info("Object uploaded")
	return nil
}

// needsPresignedPut 阿里云 OSS 不支持 SDK 默认的 aws-chunked 编码，改用预签名 PUT
func (s *S3Store) needsPresignedPut() bool {
	return strings.Contains(s.endpoint, ".aliyuncs.com")
}

func (s *S3Store) putPresigned(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	presigned, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to presign PUT URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presigned.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, values := range presigned.SignedHeader {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("presigned PUT failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("presigned PUT returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// ObjectURL 优先使用自定义 endpoint，其次是区域化的 S3 域名
func (s *S3Store) ObjectURL(bucket, key string) string {
	switch {
	case s.endpoint != "":
		return fmt.Sprintf("https://%s.%s/%s", bucket, s.endpoint, key)
	case s.region != "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
	}
}
