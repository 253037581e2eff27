package transport

import (
	"context"
	"net/http"
	"time"
)

// Server HTTP 模式下的服务
type Server struct {
	httpServer *http.Server
}

// NewServer 创建 HTTP 服务。生成类请求可能持续数十秒，写超时留足余量
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}}
}

// Run 阻塞直到服务关闭，正常关闭时返回 nil
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
