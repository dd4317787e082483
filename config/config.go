package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"colorcam/internal/platform/logging"
)

// Значения по умолчанию.
const (
	DefaultDetectEndpoint = "http://localhost:8080/api/detect-color"
	DefaultDetectTimeout  = 12 * time.Second
	DefaultMaxDimension   = 512
	DefaultJPEGQuality    = 0.9
	DefaultFacing         = "environment"
	DefaultListenAddr     = ":8080"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultGeminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultLogLevel       = "info"
)

type Config struct {
	TelegramToken string

	// Клиент распознавания
	DetectEndpoint string
	DetectTimeout  time.Duration
	MaxDimension   int
	JPEGQuality    float64

	// Камера
	CameraFacing      string
	CameraRearDevice  int
	CameraFrontDevice int

	// Сервер распознавания
	ListenAddr    string
	MetricsAddr   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		DetectEndpoint: getEnv("DETECT_ENDPOINT", DefaultDetectEndpoint),
		CameraFacing:   getEnv("CAMERA_FACING", DefaultFacing),
		ListenAddr:     getEnv("LISTEN_ADDR", DefaultListenAddr),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", DefaultGeminiBaseURL),
		LogLevel:       getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:      os.Getenv("LOG_FORMAT"),
	}

	var err error
	if cfg.DetectTimeout, err = getDuration("DETECT_TIMEOUT", DefaultDetectTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxDimension, err = getInt("MAX_DIMENSION", DefaultMaxDimension); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = getFloat("JPEG_QUALITY", DefaultJPEGQuality); err != nil {
		return nil, err
	}
	if cfg.CameraRearDevice, err = getInt("CAMERA_REAR_DEVICE", 0); err != nil {
		return nil, err
	}
	if cfg.CameraFrontDevice, err = getInt("CAMERA_FRONT_DEVICE", 1); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate возвращает список проблем конфигурации; пустой список — всё в порядке.
// Обязательность токенов проверяет команда, которой они нужны.
func (c *Config) Validate() []string {
	var problems []string

	if !strings.HasPrefix(c.DetectEndpoint, "http://") && !strings.HasPrefix(c.DetectEndpoint, "https://") {
		problems = append(problems, "DETECT_ENDPOINT must be an http(s) URL")
	}
	if c.DetectTimeout <= 0 {
		problems = append(problems, "DETECT_TIMEOUT must be positive")
	}
	if c.MaxDimension < 1 {
		problems = append(problems, "MAX_DIMENSION must be at least 1")
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 1 {
		problems = append(problems, "JPEG_QUALITY must be in (0, 1]")
	}
	if c.CameraFacing != "environment" && c.CameraFacing != "user" {
		problems = append(problems, "CAMERA_FACING must be environment or user")
	}
	if c.CameraRearDevice < 0 || c.CameraFrontDevice < 0 {
		problems = append(problems, "camera device ids must not be negative")
	}
	if !logging.KnownLevel(c.LogLevel) {
		problems = append(problems, "LOG_LEVEL must be debug, info, warn, error or off")
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "console" {
		problems = append(problems, "LOG_FORMAT must be json or console")
	}

	return problems
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
