package studio

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/credentials"
	"github.com/NeuroVisionAG/Nano-Format/internal/genai/gemini"
)

// APIClient GenAI 会话的生命周期。gemini.Holder 是默认实现
type APIClient interface {
	Initialize(apiKey string) error
	Deinitialize()
	IsReady() bool
	Current() (gemini.ImageIface, error)
}

// Publisher 把图片发布到对象存储，返回可访问的 URL
type Publisher interface {
	Publish(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Options Studio 依赖
type Options struct {
	Store credentials.Store
	API   APIClient
	// 可选：为空时 Publish 返回配置错误
	Publisher Publisher
	// 可选：存储中没有 Key 时启动使用的 Key
	SeedAPIKey string
	// 可选：测试时替换时钟
	Now func() time.Time
}

// Studio 应用状态控制器：持有全部界面状态，校验输入后调用 GenAI 会话。
// 同一时间只允许一个请求在途，第二个请求直接返回 ErrBusy
type Studio struct {
	mu       sync.Mutex
	state    State
	inFlight bool

	store     credentials.Store
	api       APIClient
	publisher Publisher
	seedKey   string
	now       func() time.Time
}

// New 创建 Studio，初始状态为 generate 模式、1:1 比例
func New(opts Options) *Studio {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Studio{
		state:     defaultState(),
		store:     opts.Store,
		api:       opts.API,
		publisher: opts.Publisher,
		seedKey:   strings.TrimSpace(opts.SeedAPIKey),
		now:       now,
	}
}

// Snapshot 返回当前状态的副本
func (s *Studio) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	if s.state.Original != nil {
		original := *s.state.Original
		state.Original = &original
	}
	state.APIReady = s.api.IsReady()
	return state
}

// Restore 启动时读取已保存的 Key 并初始化；初始化失败的 Key 会被删除
func (s *Studio) Restore(ctx context.Context) error {
	key, ok, err := s.store.Load(ctx)
	if err != nil {
		common.WithError(err).Warn("Failed to load stored API key")
		if s.seedKey == "" {
			return ioError("Failed to load the stored API key.", err)
		}
		ok = false
	}

	if ok && strings.TrimSpace(key) != "" {
		if err := s.api.Initialize(key); err != nil {
			common.WithError(err).Warn("Stored API key rejected, removing it")
			if clearErr := s.store.Clear(ctx); clearErr != nil {
				common.WithError(clearErr).Error("Failed to remove rejected API key")
			}
			return nil
		}
		common.Info("Restored API key from credential store")
		return nil
	}

	if s.seedKey != "" {
		common.Info("Using API key from configuration")
		return s.SaveAPIKey(ctx, s.seedKey)
	}
	return nil
}

// SaveAPIKey 用新 Key 初始化会话，成功后持久化；失败时删除已保存的 Key
func (s *Studio) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.fail(configError(msgEmptyKey, gemini.ErrEmptyAPIKey))
	}

	if err := s.api.Initialize(key); err != nil {
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			common.WithError(clearErr).Error("Failed to remove API key after initialization failure")
		}
		return s.fail(configError(msgInitFailed, err))
	}

	if err := s.store.Save(ctx, key); err != nil {
		common.WithError(err).Error("Failed to persist API key")
		return s.fail(ioError(msgKeyNotSaved, err))
	}

	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()

	common.WithField("api_key", common.MaskSecret(key)).Info("API key saved")
	return nil
}

// ChangeAPIKey 销毁会话并删除已保存的 Key
func (s *Studio) ChangeAPIKey(ctx context.Context) error {
	s.api.Deinitialize()
	if err := s.store.Clear(ctx); err != nil {
		common.WithError(err).Error("Failed to clear stored API key")
		return s.fail(ioError(msgKeyNotCleared, err))
	}
	common.Info("API key removed")
	return nil
}

// SetMode 切换模式。切到 generate 时 custom 比例会被重置为 1:1
func (s *Studio) SetMode(mode string) error {
	m, err := ParseMode(mode)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Mode = m
	s.reconcileLocked()
	return nil
}

// SetAspectRatio 设置比例。custom 只能在 transform 模式下选择
func (s *Studio) SetAspectRatio(ratio string) error {
	r, err := ParseAspectRatio(ratio)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == RatioCustom && s.state.Mode == ModeGenerate {
		e := validationError(msgCustomInGenerate)
		s.failLocked(e)
		return e
	}
	s.state.AspectRatio = r
	return nil
}

// SetPrompt 设置文生图提示词
func (s *Studio) SetPrompt(prompt string) {
	s.mu.Lock()
	s.state.Prompt = prompt
	s.mu.Unlock()
}

// SetCustomSize 设置自定义宽高，校验推迟到 Transform
func (s *Studio) SetCustomSize(width, height string) {
	s.mu.Lock()
	s.state.CustomWidth = strings.TrimSpace(width)
	s.state.CustomHeight = strings.TrimSpace(height)
	s.mu.Unlock()
}

// DismissError 清除错误提示
func (s *Studio) DismissError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

// reconcileLocked 切到 generate 时 custom 重置为 1:1
func (s *Studio) reconcileLocked() {
	if s.state.Mode == ModeGenerate && s.state.AspectRatio == RatioCustom {
		s.state.AspectRatio = Ratio1x1
	}
}

// fail 记录错误文案并返回错误
func (s *Studio) fail(err *Error) error {
	s.mu.Lock()
	s.failLocked(err)
	s.mu.Unlock()
	return err
}

func (s *Studio) failLocked(err *Error) {
	s.state.Error = err.Msg
	common.WithError(err.Err).WithField("kind", err.Kind.Error()).Warn(err.Msg)
}

// beginLocked 取得在途令牌
func (s *Studio) beginLocked(message string) {
	s.inFlight = true
	s.state.IsLoading = true
	s.state.LoadingMessage = message
	s.state.Error = ""
}

// endLocked 归还在途令牌
func (s *Studio) endLocked() {
	s.inFlight = false
	s.state.IsLoading = false
	s.state.LoadingMessage = ""
}
