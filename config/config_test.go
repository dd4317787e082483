package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var keys = []string{
	"TELEGRAM_TOKEN", "DETECT_ENDPOINT", "DETECT_TIMEOUT", "MAX_DIMENSION", "JPEG_QUALITY",
	"CAMERA_FACING", "CAMERA_REAR_DEVICE", "CAMERA_FRONT_DEVICE", "LISTEN_ADDR", "METRICS_ADDR",
	"GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "LOG_LEVEL", "LOG_FORMAT",
}

// isolate переходит в пустой каталог без .env и очищает переменные.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, DefaultDetectEndpoint, cfg.DetectEndpoint)
	require.Equal(t, 12*time.Second, cfg.DetectTimeout)
	require.Equal(t, 512, cfg.MaxDimension)
	require.Equal(t, 0.9, cfg.JPEGQuality)
	require.Equal(t, "environment", cfg.CameraFacing)
	require.Equal(t, 0, cfg.CameraRearDevice)
	require.Equal(t, 1, cfg.CameraFrontDevice)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	require.Equal(t, DefaultGeminiBaseURL, cfg.GeminiBaseURL)
	require.Empty(t, cfg.MetricsAddr)
	require.Empty(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_TOKEN", "tok")
	t.Setenv("DETECT_TIMEOUT", "3s")
	t.Setenv("MAX_DIMENSION", "256")
	t.Setenv("JPEG_QUALITY", "0.5")
	t.Setenv("CAMERA_FACING", "user")
	t.Setenv("CAMERA_FRONT_DEVICE", "4")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "tok", cfg.TelegramToken)
	require.Equal(t, 3*time.Second, cfg.DetectTimeout)
	require.Equal(t, 256, cfg.MaxDimension)
	require.Equal(t, 0.5, cfg.JPEGQuality)
	require.Equal(t, "user", cfg.CameraFacing)
	require.Equal(t, 4, cfg.CameraFrontDevice)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("GEMINI_API_KEY=from-file\n"), 0o600))
	os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.GeminiAPIKey)
}

func TestLoad_BadNumber(t *testing.T) {
	isolate(t)
	t.Setenv("MAX_DIMENSION", "big")

	_, err := Load()
	require.ErrorContains(t, err, "MAX_DIMENSION")
}

func TestValidate(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)

	cfg.DetectEndpoint = "localhost:8080"
	cfg.JPEGQuality = 1.5
	cfg.CameraFacing = "side"
	cfg.LogLevel = "loud"

	problems := cfg.Validate()
	require.Len(t, problems, 4)
}

func TestValidate_LogLevelsMatchLogger(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)

	for _, level := range []string{"debug", "info", "warn", "warning", "error", "off", "disabled"} {
		cfg.LogLevel = level
		require.Empty(t, cfg.Validate(), level)
	}
}
