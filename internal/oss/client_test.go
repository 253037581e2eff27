package oss

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjectStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjectStore) PutObject(_ context.Context, bucket, key string, body []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.objects[bucket+"/"+key] = body
	m.types[bucket+"/"+key] = contentType
	return nil
}

func (m *memObjectStore) ObjectURL(bucket, key string) string {
	return "https://" + bucket + ".example.com/" + key
}

func TestImagePublisherPublish(t *testing.T) {
	store := newMemObjectStore()
	p := NewImagePublisher(store, "studio")
	p.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) }

	url, err := p.Publish(context.Background(), []byte("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://studio.example.com/images/2026-03-14/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))
	require.Len(t, store.objects, 1)
	for key, body := range store.objects {
		assert.Equal(t, []byte("jpeg bytes"), body)
		assert.Equal(t, "image/jpeg", store.types[key])
	}
}

func TestImagePublisherErrors(t *testing.T) {
	store := newMemObjectStore()
	p := NewImagePublisher(store, "studio")

	_, err := p.Publish(context.Background(), nil, "image/png")
	assert.ErrorIs(t, err, ErrEmptyObject)

	store.err = errors.New("access denied")
	_, err = p.Publish(context.Background(), []byte("png"), "image/png")
	assert.EqualError(t, err, "access denied")
}

func TestS3StoreObjectURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		region   string
		want     string
	}{
		{name: "custom endpoint", endpoint: "oss-cn-beijing.aliyuncs.com", region: "cn-beijing", want: "https://b.oss-cn-beijing.aliyuncs.com/k.png"},
		{name: "aws region", region: "eu-west-1", want: "https://b.s3.eu-west-1.amazonaws.com/k.png"},
		{name: "aws global", want: "https://b.s3.amazonaws.com/k.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &S3Store{endpoint: tt.endpoint, region: tt.region}
			assert.Equal(t, tt.want, s.ObjectURL("b", "k.png"))
		})
	}
}

func TestNeedsPresignedPut(t *testing.T) {
	assert.True(t, (&S3Store{endpoint: "oss-cn-hangzhou.aliyuncs.com"}).needsPresignedPut())
	assert.False(t, (&S3Store{endpoint: "s3.amazonaws.com"}).needsPresignedPut())
}

func TestNewPublisherFromConfig(t *testing.T) {
	p, err := NewPublisherFromConfig(context.Background(), &common.Config{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewPublisherFromConfig(context.Background(), &common.Config{
		OSSRegion:    "us-east-1",
		OSSAccessKey: "ak",
		OSSSecretKey: "sk",
		OSSBucket:    "studio",
	})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "studio", p.bucket)
}
