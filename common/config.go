package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// 前端运行模式
	ServerModeStdio = "stdio"
	ServerModeHTTP  = "http"

	// 凭据存储后端
	CredentialStoreFile  = "file"
	CredentialStoreRedis = "redis"

	DefaultGenModelName  = "imagen-4.0-generate-001"
	DefaultEditModelName = "gemini-2.5-flash-image-preview"
)

// Config 应用配置结构
type Config struct {
	// GenAI 配置。API Key 可选：为空时需要用户在运行时输入
	GenAIBaseURL string
	GenAIAPIKey  string
	// 分别用于图片生成与图片编辑的模型名称
	GenAIGenModelName  string
	GenAIEditModelName string
	// GenAI 请求超时时间（秒），0 表示不额外限制
	GenAITimeoutSeconds int

	// 前端: stdio (MCP) 或 http (gin)
	ServerMode    string
	ServerAddress string
	ServerPort    string

	// 凭据存储: file 或 redis
	CredentialStore string
	CredentialFile  string
	RedisURL        string
	RedisKeyPrefix  string

	// OSS 配置（发布图片时使用，可选）
	OSSEndpoint  string
	OSSRegion    string
	OSSAccessKey string
	OSSSecretKey string
	OSSBucket    string

	// 下载图片的默认保存目录
	DownloadDir string

	// 日志配置
	LogLevel  string // 日志级别: debug, info, warn, error
	LogFormat string // 日志格式: json, text
	LogOutput string // 输出位置: stdout, stderr, file
	LogFile   string // 日志文件路径（当 LogOutput 为 file 时）
}

// LoadConfig 从 .env 文件和环境变量加载配置，并初始化日志系统
func LoadConfig() (*Config, error) {
	// .env 文件不存在时直接使用环境变量。stdio 模式下 stdout 属于协议通道，提示写到 stderr
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}

	config, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	logConfig := &LogConfig{
		Level:    config.LogLevel,
		Format:   config.LogFormat,
		Output:   config.LogOutput,
		FilePath: config.LogFile,
	}
	if err := InitLogger(logConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return config, nil
}

// configFromEnv 读取并校验环境变量
func configFromEnv() (*Config, error) {
	config := &Config{
		GenAIBaseURL:        getEnv("GENAI_BASE_URL", ""),
		GenAIAPIKey:         strings.TrimSpace(getEnv("GENAI_API_KEY", "")),
		GenAIGenModelName:   getEnv("GENAI_GEN_MODEL_NAME", DefaultGenModelName),
		GenAIEditModelName:  getEnv("GENAI_EDIT_MODEL_NAME", DefaultEditModelName),
		GenAITimeoutSeconds: getEnvInt("GENAI_TIMEOUT_SECONDS", 0),
		ServerMode:          strings.ToLower(getEnv("SERVER_MODE", ServerModeStdio)),
		ServerAddress:       getEnv("SERVER_ADDRESS", "0.0.0.0"),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		CredentialStore:     strings.ToLower(getEnv("CREDENTIAL_STORE", CredentialStoreFile)),
		CredentialFile:      getEnv("CREDENTIAL_FILE", defaultCredentialFile()),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix:      getEnv("REDIS_KEY_PREFIX", "nano-format:"),
		// OSS 配置
		OSSEndpoint:  getEnv("OSS_ENDPOINT", ""),
		OSSRegion:    getEnv("OSS_REGION", "us-east-1"),
		OSSAccessKey: getEnv("OSS_ACCESS_KEY", ""),
		OSSSecretKey: getEnv("OSS_SECRET_KEY", ""),
		OSSBucket:    getEnv("OSS_BUCKET", ""),
		DownloadDir:  getEnv("DOWNLOAD_DIR", "."),
		// 日志配置
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogOutput: getEnv("LOG_OUTPUT", "stderr"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	switch config.ServerMode {
	case ServerModeStdio, ServerModeHTTP:
	default:
		return nil, fmt.Errorf("unsupported SERVER_MODE: %s", config.ServerMode)
	}

	switch config.CredentialStore {
	case CredentialStoreFile:
		if config.CredentialFile == "" {
			return nil, fmt.Errorf("CREDENTIAL_FILE is required when CREDENTIAL_STORE=file")
		}
	case CredentialStoreRedis:
		if config.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when CREDENTIAL_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported CREDENTIAL_STORE: %s", config.CredentialStore)
	}

	if config.GenAITimeoutSeconds < 0 {
		return nil, fmt.Errorf("GENAI_TIMEOUT_SECONDS must not be negative")
	}

	return config, nil
}

// defaultCredentialFile 默认凭据文件位于用户配置目录下
func defaultCredentialFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".nano-format-credentials.json"
	}
	return filepath.Join(dir, "nano-format", "credentials.json")
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 获取整型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}

// GetServerAddr 返回完整的服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.ServerAddress, c.ServerPort)
}

// OSSEnabled 是否配置了发布图片所需的 OSS
func (c *Config) OSSEnabled() bool {
	return c.OSSBucket != "" && c.OSSAccessKey != "" && c.OSSSecretKey != ""
}
