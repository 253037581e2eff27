package studio

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/utils"
)

// DownloadFile 导出的图片文件
type DownloadFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Upload 读取用户选择的图片，成为展示图片和规范图片。
// 读取是同步的，读完之前在途令牌不会释放
func (s *Studio) Upload(ctx context.Context, name, contentType string, r io.Reader) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return busyError()
	}
	s.beginLocked(loadingUpload)
	s.state.UploadedFileName = name
	s.mu.Unlock()

	data, readErr := readAll(ctx, r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endLocked()

	if readErr != nil {
		e := ioError(msgFileRead, readErr)
		s.failLocked(e)
		return e
	}
	if len(data) == 0 {
		e := validationError(msgFileEmpty)
		s.failLocked(e)
		return e
	}
	mimeType := utils.DetectImageMimeType(contentType, data)
	if !utils.IsImageMimeType(mimeType) {
		e := validationError(msgNotImage)
		s.failLocked(e)
		return e
	}

	s.setImageLocked(utils.EncodeDataURI(mimeType, data), mimeType)
	common.WithFields(map[string]interface{}{
		"file":      name,
		"mime_type": mimeType,
		"size":      len(data),
	}).Info("Image uploaded")
	return nil
}

// UploadFile 从本地路径上传图片
func (s *Studio) UploadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return s.fail(ioError(msgFileRead, err))
	}
	defer f.Close()

	return s.Upload(ctx, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), f)
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Download 导出当前展示的图片，文件名为 ai-image-{毫秒时间戳}.ext
func (s *Studio) Download() (*DownloadFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.state.ImageSrc
	if src == "" {
		e := validationError(msgNoImageToExport)
		s.failLocked(e)
		return nil, e
	}
	mimeType, data, err := utils.DecodeDataURI(src)
	if err != nil {
		e := &Error{Kind: ErrValidation, Msg: msgNoMediaType, Err: err}
		s.failLocked(e)
		return nil, e
	}
	return &DownloadFile{
		Name:     utils.DownloadFileName(mimeType, s.now()),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// SaveDownload 把当前展示的图片写入 dir，返回文件路径
func (s *Studio) SaveDownload(dir string) (string, error) {
	file, err := s.Download()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", s.fail(ioError(msgFileWrite, err))
	}
	path := filepath.Join(dir, file.Name)
	if err := os.WriteFile(path, file.Data, 0644); err != nil {
		return "", s.fail(ioError(msgFileWrite, err))
	}
	common.WithField("path", path).Info("Image saved")
	return path, nil
}
