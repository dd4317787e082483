//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"errors"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// GoCVDevices заглушка камер без OpenCV.
type GoCVDevices struct {
	RearDevice  int
	FrontDevice int
	Width       int
	Height      int
}

// NewGoCVDevices создаёт заглушку (без OpenCV).
func NewGoCVDevices(rear, front int) *GoCVDevices {
	return &GoCVDevices{
		RearDevice:  rear,
		FrontDevice: front,
		Width:       1920,
		Height:      1080,
	}
}

// GetUserMedia возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDevices) GetUserMedia(ctx context.Context, constraints entity.MediaConstraints) (port.MediaStream, error) {
	_ = ctx
	_ = constraints
	return nil, entity.NewError(entity.KindDeviceUnavailable, errors.New("gocv build tag is not enabled"))
}

var _ port.MediaDevices = (*GoCVDevices)(nil)
