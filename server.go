package main

import (
	"context"
	"io"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NeuroVisionAG/Nano-Format/common"
	"github.com/NeuroVisionAG/Nano-Format/internal/credentials"
	"github.com/NeuroVisionAG/Nano-Format/internal/genai/gemini"
	"github.com/NeuroVisionAG/Nano-Format/internal/oss"
	"github.com/NeuroVisionAG/Nano-Format/internal/studio"
	"github.com/NeuroVisionAG/Nano-Format/internal/tools"
	"github.com/NeuroVisionAG/Nano-Format/internal/transport"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// 加载配置
	config, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 打印配置信息（隐藏敏感信息）
	common.WithFields(map[string]interface{}{
		"mode":             config.ServerMode,
		"base_url":         config.GenAIBaseURL,
		"gen_model":        config.GenAIGenModelName,
		"edit_model":       config.GenAIEditModelName,
		"credential_store": config.CredentialStore,
		"oss_enabled":      config.OSSEnabled(),
		"api_key":          common.MaskSecret(config.GenAIAPIKey),
	}).Info("Server starting")

	store, err := credentials.NewStoreFromConfig(ctx, config)
	if err != nil {
		common.Fatalf("Failed to create credential store: %v", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	opts := studio.Options{
		Store:      store,
		API:        gemini.NewHolder(gemini.NewConfigFromCommon(config)),
		SeedAPIKey: config.GenAIAPIKey,
	}
	publisher, err := oss.NewPublisherFromConfig(ctx, config)
	if err != nil {
		common.Fatalf("Failed to create OSS client: %v", err)
	}
	if publisher != nil {
		opts.Publisher = publisher
	}

	st := studio.New(opts)
	if err := st.Restore(ctx); err != nil {
		common.WithError(err).Warn("Starting without a stored API key")
	}

	switch config.ServerMode {
	case common.ServerModeHTTP:
		serveHTTP(ctx, config, st)
	default:
		serveStdio(config, st)
	}
}

// serveStdio 启动 MCP stdio 服务器
func serveStdio(config *common.Config, st *studio.Studio) {
	s := server.NewMCPServer(
		"Nano Format Image Studio",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	if err := tools.RegisterStudioTools(s, tools.NewStudioTools(st, config.DownloadDir)); err != nil {
		common.Fatalf("Failed to register studio tools: %v", err)
	}

	if err := server.ServeStdio(s); err != nil {
		common.Fatalf("Server error: %v", err)
	}
}

// serveHTTP 启动 gin HTTP 服务器，收到信号后优雅关闭
func serveHTTP(ctx context.Context, config *common.Config, st *studio.Studio) {
	if !strings.EqualFold(config.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := transport.NewServer(config.GetServerAddr(), transport.InitRoutes(transport.NewStudioHandler(st)))
	go func() {
		if err := srv.Run(); err != nil {
			common.Fatalf("HTTP server error: %v", err)
		}
	}()
	common.Infof("HTTP server listening on %s", config.GetServerAddr())

	<-ctx.Done()
	common.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.Error("Failed to shut down HTTP server: ", err)
	}
}
