package studio

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/genai/gemini"
	"github.com/NeuroVisionAG/Nano-Format/internal/utils"
)

const (
	loadingGenerate  = "Generating image..."
	loadingTransform = "Transforming image..."
	loadingEnhance   = "Enhancing quality..."
	loadingUpload    = "Processing file..."
	loadingPublish   = "Publishing image..."
)

// remoteCall 在持有在途令牌、未持锁的情况下执行
type remoteCall func(ctx context.Context, session gemini.ImageIface) (string, error)

// prepareLocked 公共前置检查：在途请求、会话是否就绪
func (s *Studio) prepareLocked() (gemini.ImageIface, error) {
	if s.inFlight {
		return nil, busyError()
	}
	if !s.api.IsReady() {
		err := configError(msgNotConfigured, gemini.ErrUninitialized)
		s.failLocked(err)
		return nil, err
	}
	session, err := s.api.Current()
	if err != nil {
		e := configError(msgNotConfigured, err)
		s.failLocked(e)
		return nil, e
	}
	return session, nil
}

// Generate 根据提示词生成图片，只能使用固定比例
func (s *Studio) Generate(ctx context.Context) error {
	s.mu.Lock()
	session, err := s.prepareLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	prompt := s.state.Prompt
	ratio := s.state.AspectRatio
	if prompt == "" {
		e := validationError(msgPromptRequired)
		s.failLocked(e)
		s.mu.Unlock()
		return e
	}
	if ratio == RatioCustom {
		e := validationError(msgCustomInGenerate)
		s.failLocked(e)
		s.mu.Unlock()
		return e
	}
	s.beginLocked(loadingGenerate)
	s.mu.Unlock()

	common.WithFields(map[string]interface{}{
		"prompt":       utils.TruncateForLog(prompt, 100),
		"aspect_ratio": ratio,
	}).Info("Generate requested")

	return s.runRemote(ctx, session, func(ctx context.Context, session gemini.ImageIface) (string, error) {
		return session.GenerateImage(ctx, prompt, string(ratio))
	})
}

// Transform 扩展当前规范图片到目标比例或自定义像素尺寸
func (s *Studio) Transform(ctx context.Context) error {
	s.mu.Lock()
	session, err := s.prepareLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state.Original == nil {
		e := validationError(msgNoSourceImage)
		s.failLocked(e)
		s.mu.Unlock()
		return e
	}
	original := *s.state.Original

	target := string(s.state.AspectRatio)
	if s.state.AspectRatio == RatioCustom {
		w, errW := parsePositive(s.state.CustomWidth)
		h, errH := parsePositive(s.state.CustomHeight)
		if errW != nil || errH != nil {
			e := validationError(msgInvalidCustomSize)
			s.failLocked(e)
			s.mu.Unlock()
			return e
		}
		target = fmt.Sprintf("%dx%d", w, h)
	}
	s.beginLocked(loadingTransform)
	s.mu.Unlock()

	common.WithFields(map[string]interface{}{
		"mime_type": original.MIMEType,
		"target":    target,
	}).Info("Transform requested")

	return s.runRemote(ctx, session, func(ctx context.Context, session gemini.ImageIface) (string, error) {
		return session.TransformImage(ctx, original.DataURI, original.MIMEType, target)
	})
}

// Enhance 提升当前展示图片的清晰度。展示的图片可能是上一次的结果，
// 所以 MIME 类型从 data URI 中解析，而不是使用规范图片的类型
func (s *Studio) Enhance(ctx context.Context) error {
	s.mu.Lock()
	session, err := s.prepareLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	src := s.state.ImageSrc
	if src == "" {
		e := validationError(msgNoImageToEnhance)
		s.failLocked(e)
		s.mu.Unlock()
		return e
	}
	mimeType, mtErr := utils.MediaTypeOf(src)
	if mtErr != nil {
		e := &Error{Kind: ErrValidation, Msg: msgNoMediaType, Err: mtErr}
		s.failLocked(e)
		s.mu.Unlock()
		return e
	}
	s.beginLocked(loadingEnhance)
	s.mu.Unlock()

	common.WithField("mime_type", mimeType).Info("Enhance requested")

	return s.runRemote(ctx, session, func(ctx context.Context, session gemini.ImageIface) (string, error) {
		return session.EnhanceImage(ctx, src, mimeType)
	})
}

// runRemote 执行远程调用并结束请求：无论成功失败都清除加载状态
func (s *Studio) runRemote(ctx context.Context, session gemini.ImageIface, call remoteCall) error {
	result, callErr := call(ctx, session)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()

	if callErr != nil {
		e := remoteError(callErr)
		s.failLocked(e)
		return e
	}

	mimeType, err := utils.MediaTypeOf(result)
	if err != nil {
		mimeType = fallbackMimeType
	}
	s.setImageLocked(result, mimeType)
	common.WithField("mime_type", mimeType).Info("Image updated")
	return nil
}

// remoteError 远程失败的文案原样展示给用户
func remoteError(err error) *Error {
	msg := err.Error()
	if msg == "" {
		msg = msgUnknown
	}
	if errors.Is(err, gemini.ErrUninitialized) {
		return &Error{Kind: ErrNotConfigured, Msg: msgNotConfigured, Err: err}
	}
	return &Error{Kind: ErrRemote, Msg: msg, Err: err}
}

// setImageLocked 新图片同时成为展示图片和下一次 transform 的输入
func (s *Studio) setImageLocked(dataURI, mimeType string) {
	s.state.ImageSrc = dataURI
	s.state.Original = &ImageData{DataURI: dataURI, MIMEType: mimeType}
}

// Publish 把当前展示的图片上传到对象存储
func (s *Studio) Publish(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return "", busyError()
	}
	if s.publisher == nil {
		e := configError(msgStorageMissing, nil)
		s.failLocked(e)
		s.mu.Unlock()
		return "", e
	}
	src := s.state.ImageSrc
	if src == "" {
		e := validationError(msgNoImageToExport)
		s.failLocked(e)
		s.mu.Unlock()
		return "", e
	}
	mimeType, data, err := utils.DecodeDataURI(src)
	if err != nil {
		e := &Error{Kind: ErrValidation, Msg: msgNoMediaType, Err: err}
		s.failLocked(e)
		s.mu.Unlock()
		return "", e
	}
	s.beginLocked(loadingPublish)
	s.mu.Unlock()

	url, pubErr := s.publisher.Publish(ctx, data, mimeType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()
	if pubErr != nil {
		e := remoteError(pubErr)
		s.failLocked(e)
		return "", e
	}
	common.WithField("url", url).Info("Image published")
	return url, nil
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive: %d", n)
	}
	return n, nil
}
