package common

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("SERVER_MODE", "")
	t.Setenv("CREDENTIAL_STORE", "")
	t.Setenv("GENAI_GEN_MODEL_NAME", "")
	t.Setenv("GENAI_EDIT_MODEL_NAME", "")
	t.Setenv("GENAI_TIMEOUT_SECONDS", "")
	t.Setenv("LOG_OUTPUT", "")

	cfg, err := configFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ServerModeStdio, cfg.ServerMode)
	assert.Equal(t, CredentialStoreFile, cfg.CredentialStore)
	assert.Equal(t, DefaultGenModelName, cfg.GenAIGenModelName)
	assert.Equal(t, DefaultEditModelName, cfg.GenAIEditModelName)
	assert.Equal(t, 0, cfg.GenAITimeoutSeconds)
	assert.Equal(t, "stderr", cfg.LogOutput)
	assert.NotEmpty(t, cfg.CredentialFile)
	assert.Empty(t, cfg.GenAIAPIKey)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "  secret-key  ")
	t.Setenv("SERVER_MODE", "HTTP")
	t.Setenv("SERVER_ADDRESS", "127.0.0.1")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CREDENTIAL_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("GENAI_TIMEOUT_SECONDS", "45")

	cfg, err := configFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.GenAIAPIKey)
	assert.Equal(t, ServerModeHTTP, cfg.ServerMode)
	assert.Equal(t, "127.0.0.1:9000", cfg.GetServerAddr())
	assert.Equal(t, CredentialStoreRedis, cfg.CredentialStore)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 45, cfg.GenAITimeoutSeconds)
}

func TestConfigFromEnvRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "server mode", key: "SERVER_MODE", value: "grpc"},
		{name: "credential store", key: "CREDENTIAL_STORE", value: "cookie"},
		{name: "negative timeout", key: "GENAI_TIMEOUT_SECONDS", value: "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := configFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestOSSEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.OSSEnabled())

	cfg.OSSBucket = "images"
	cfg.OSSAccessKey = "ak"
	cfg.OSSSecretKey = "sk"
	assert.True(t, cfg.OSSEnabled())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "****", MaskSecret("short"))
	assert.Equal(t, "AIza****wxyz", MaskSecret("AIzaSyExample-wxyz"))
}

func TestInitLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	err := InitLogger(&LogConfig{Level: "debug", Format: "json", Output: "file", FilePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { Logger = nil })

	assert.Equal(t, "debug", GetLogger().GetLevel().String())
	assert.FileExists(t, path)
}

func TestWithFieldsUsesGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitLogger(&LogConfig{Level: "info", Format: "text"}))
	t.Cleanup(func() { Logger = nil })
	GetLogger().SetOutput(&buf)

	WithFields(map[string]interface{}{"mode": "generate"}).Info("studio ready")

	assert.Contains(t, buf.String(), "mode=generate")
	assert.Contains(t, buf.String(), "studio ready")
}
