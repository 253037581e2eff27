package gemini

import (
	"strings"
	"sync"

	"github.com/NeuroVisionAG/Nano-Format/common"
)

// Holder 持有当前会话：Initialize 创建，Deinitialize 销毁，调用方通过 Current 取得会话句柄
type Holder struct {
	mu      sync.RWMutex
	cfg     Config
	session *Session
	open    func(cfg Config, apiKey string) (*Session, error)
}

// NewHolder 创建未初始化的会话持有者
func NewHolder(cfg Config) *Holder {
	return &Holder{cfg: cfg, open: NewSession}
}

// Initialize 用新的 API Key 替换当前会话。失败时不保留任何会话
func (h *Holder) Initialize(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session != nil {
		h.session.Close()
		h.session = nil
	}

	if apiKey == "" {
		common.Error("Attempted to initialize API with an empty key")
		return ErrEmptyAPIKey
	}

	session, err := h.open(h.cfg, apiKey)
	if err != nil {
		common.WithError(err).Error("Failed to initialize GenAI session")
		return err
	}
	h.session = session

	common.WithField("api_key", common.MaskSecret(apiKey)).Info("GenAI session initialized")
	return nil
}

// Deinitialize 销毁当前会话，之后的操作都会返回 ErrUninitialized
func (h *Holder) Deinitialize() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session != nil {
		h.session.Close()
		h.session = nil
		common.Info("GenAI session discarded")
	}
}

// IsReady 当前是否持有会话
func (h *Holder) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session != nil
}

// Current 返回当前会话句柄
func (h *Holder) Current() (ImageIface, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return nil, ErrUninitialized
	}
	return h.session, nil
}
