package port

import (
	"context"
	"time"

	"colorcam/internal/domain/entity"
)

// ColorDetector отправляет кадр во внешний сервис и возвращает проверенный цвет.
type ColorDetector interface {
	Detect(ctx context.Context, payload entity.EncodedPayload, timeout time.Duration) (entity.ColorResult, error)
}

// ColorAnalyzer — модель, которая по JPEG угадывает цвет.
// Ответ не проверен: его проверяет вызывающая сторона.
type ColorAnalyzer interface {
	Analyze(ctx context.Context, jpegBase64 string) (colorName, hexCode string, err error)
}
