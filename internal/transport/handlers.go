package transport

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/studio"
	"github.com/gin-gonic/gin"
)

// StudioHandler HTTP 处理函数
type StudioHandler struct {
	studio *studio.Studio
}

func NewStudioHandler(st *studio.Studio) *StudioHandler {
	return &StudioHandler{studio: st}
}

type apiKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// settingsRequest 只修改出现的字段
type settingsRequest struct {
	Mode         *string `json:"mode"`
	Prompt       *string `json:"prompt"`
	AspectRatio  *string `json:"aspect_ratio"`
	CustomWidth  *string `json:"custom_width"`
	CustomHeight *string `json:"custom_height"`
}

// stateResponse 不包含图片数据，图片通过 GET /api/image 获取
type stateResponse struct {
	Status           studio.Status      `json:"status"`
	APIReady         bool               `json:"api_ready"`
	Mode             studio.Mode        `json:"mode"`
	Prompt           string             `json:"prompt"`
	AspectRatio      studio.AspectRatio `json:"aspect_ratio"`
	CustomWidth      string             `json:"custom_width"`
	CustomHeight     string             `json:"custom_height"`
	HasImage         bool               `json:"has_image"`
	MIMEType         string             `json:"mime_type,omitempty"`
	UploadedFileName string             `json:"uploaded_file_name,omitempty"`
	IsLoading        bool               `json:"is_loading"`
	LoadingMessage   string             `json:"loading_message,omitempty"`
	Error            string             `json:"error,omitempty"`
}

func newStateResponse(s studio.State) stateResponse {
	resp := stateResponse{
		Status:           s.Status(),
		APIReady:         s.APIReady,
		Mode:             s.Mode,
		Prompt:           s.Prompt,
		AspectRatio:      s.AspectRatio,
		CustomWidth:      s.CustomWidth,
		CustomHeight:     s.CustomHeight,
		HasImage:         s.ImageSrc != "",
		UploadedFileName: s.UploadedFileName,
		IsLoading:        s.IsLoading,
		LoadingMessage:   s.LoadingMessage,
		Error:            s.Error,
	}
	if s.Original != nil {
		resp.MIMEType = s.Original.MIMEType
	}
	return resp
}

// statusFor 错误分类对应的 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, studio.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, studio.ErrNotConfigured):
		return http.StatusPreconditionFailed
	case errors.Is(err, studio.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, studio.ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *StudioHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	common.WithFields(map[string]interface{}{
		"path":   c.FullPath(),
		"status": status,
	}).WithError(err).Warn("Request failed")
	c.JSON(status, gin.H{"error": err.Error(), "state": newStateResponse(h.studio.Snapshot())})
}

func (h *StudioHandler) ok(c *gin.Context) {
	c.JSON(http.StatusOK, newStateResponse(h.studio.Snapshot()))
}

// GetState GET /api/state
func (h *StudioHandler) GetState(c *gin.Context) {
	h.ok(c)
}

// SetAPIKey PUT /api/key
func (h *StudioHandler) SetAPIKey(c *gin.Context) {
	var req apiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}
	if err := h.studio.SaveAPIKey(c.Request.Context(), req.APIKey); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// ClearAPIKey DELETE /api/key
func (h *StudioHandler) ClearAPIKey(c *gin.Context) {
	if err := h.studio.ChangeAPIKey(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// UpdateSettings PATCH /api/settings
func (h *StudioHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload"})
		return
	}
	if err := h.applySettings(req); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// applySettings mode 先于 aspect_ratio
func (h *StudioHandler) applySettings(req settingsRequest) error {
	if req.Mode != nil {
		if err := h.studio.SetMode(*req.Mode); err != nil {
			return err
		}
	}
	if req.Prompt != nil {
		h.studio.SetPrompt(*req.Prompt)
	}
	if req.AspectRatio != nil {
		if err := h.studio.SetAspectRatio(*req.AspectRatio); err != nil {
			return err
		}
	}
	if req.CustomWidth != nil || req.CustomHeight != nil {
		current := h.studio.Snapshot()
		width, height := current.CustomWidth, current.CustomHeight
		if req.CustomWidth != nil {
			width = *req.CustomWidth
		}
		if req.CustomHeight != nil {
			height = *req.CustomHeight
		}
		h.studio.SetCustomSize(width, height)
	}
	return nil
}

// bindOptionalSettings 操作请求可以携带设置，空 body（包括 chunked 的空 body）时跳过
func (h *StudioHandler) bindOptionalSettings(c *gin.Context) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload"})
		return false
	}
	if err := h.applySettings(req); err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

// Generate POST /api/generate
func (h *StudioHandler) Generate(c *gin.Context) {
	if !h.bindOptionalSettings(c) {
		return
	}
	if err := h.studio.Generate(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// Transform POST /api/transform
func (h *StudioHandler) Transform(c *gin.Context) {
	if !h.bindOptionalSettings(c) {
		return
	}
	if err := h.studio.Transform(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// Enhance POST /api/enhance
func (h *StudioHandler) Enhance(c *gin.Context) {
	if err := h.studio.Enhance(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// UploadImage POST /api/upload，multipart 字段 image
func (h *StudioHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file."})
		return
	}
	defer f.Close()

	if err := h.studio.Upload(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), f); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c)
}

// GetImage GET /api/image，返回完整 data URI
func (h *StudioHandler) GetImage(c *gin.Context) {
	state := h.studio.Snapshot()
	if state.ImageSrc == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No image"})
		return
	}
	resp := gin.H{"image_src": state.ImageSrc}
	if state.Original != nil {
		resp["mime_type"] = state.Original.MIMEType
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadImage GET /api/image/download
func (h *StudioHandler) DownloadImage(c *gin.Context) {
	file, err := h.studio.Download()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Data(http.StatusOK, file.MIMEType, file.Data)
}

// PublishImage POST /api/image/publish
func (h *StudioHandler) PublishImage(c *gin.Context) {
	url, err := h.studio.Publish(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// DismissError DELETE /api/error
func (h *StudioHandler) DismissError(c *gin.Context) {
	h.studio.DismissError()
	h.ok(c)
}
