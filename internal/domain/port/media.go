package port

import (
	"context"
	"image"

	"colorcam/internal/domain/entity"
)

// FrameSource — живой видеосигнал активной сессии камеры.
type FrameSource interface {
	// CurrentFrame возвращает кадр, отображаемый в момент вызова
	CurrentFrame() (image.Image, error)
}

// MediaTrack — дорожка видеопотока.
type MediaTrack interface {
	ID() string
	Live() bool
	Stop()
}

// MediaStream — выданный платформой видеопоток.
type MediaStream interface {
	FrameSource

	// Tracks возвращает все дорожки потока
	Tracks() []MediaTrack
}

// MediaDevices — граница захвата медиа.
type MediaDevices interface {
	// GetUserMedia запрашивает поток с учётом предпочтения по камере.
	// Ошибки: entity.ErrPermissionDenied, entity.ErrDeviceUnavailable
	GetUserMedia(ctx context.Context, constraints entity.MediaConstraints) (MediaStream, error)
}
