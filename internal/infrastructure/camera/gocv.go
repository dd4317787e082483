//go:build gocv
// +build gocv

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"

	"gocv.io/x/gocv"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// GoCVDevices открывает камеры устройства через OpenCV.
type GoCVDevices struct {
	RearDevice  int // индекс тыльной камеры
	FrontDevice int // индекс фронтальной камеры
	Width       int // желаемая ширина кадра, 0 — по умолчанию драйвера
	Height      int // желаемая высота кадра
}

// NewGoCVDevices создаёт доступ к камерам с заданными индексами.
func NewGoCVDevices(rear, front int) *GoCVDevices {
	return &GoCVDevices{
		RearDevice:  rear,
		FrontDevice: front,
		Width:       1920,
		Height:      1080,
	}
}

// GetUserMedia открывает предпочтительную камеру, затем запасную.
func (d *GoCVDevices) GetUserMedia(ctx context.Context, constraints entity.MediaConstraints) (port.MediaStream, error) {
	var lastErr error
	for _, id := range d.order(constraints.Facing) {
		if err := ctx.Err(); err != nil {
			return nil, entity.NewError(entity.KindDeviceUnavailable, err)
		}

		stream, err := d.open(id)
		if err == nil {
			return stream, nil
		}
		// Запрет доступа не лечится переходом на другую камеру.
		if errors.Is(err, entity.ErrPermissionDenied) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = entity.NewError(entity.KindDeviceUnavailable, errors.New("no camera configured"))
	}
	return nil, lastErr
}

// order возвращает индексы камер в порядке предпочтения.
func (d *GoCVDevices) order(facing entity.FacingMode) []int {
	if facing == entity.FacingUser {
		if d.FrontDevice == d.RearDevice {
			return []int{d.FrontDevice}
		}
		return []int{d.FrontDevice, d.RearDevice}
	}
	if d.FrontDevice == d.RearDevice {
		return []int{d.RearDevice}
	}
	return []int{d.RearDevice, d.FrontDevice}
}

func (d *GoCVDevices) open(id int) (*gocvStream, error) {
	if err := probeDevice(id); err != nil {
		return nil, err
	}

	capture, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, entity.NewError(entity.KindDeviceUnavailable, fmt.Errorf("open device %d: %w", id, err))
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, entity.NewError(entity.KindDeviceUnavailable, fmt.Errorf("device %d is not opened", id))
	}

	if d.Width > 0 && d.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(d.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(d.Height))
	}

	return &gocvStream{
		capture: capture,
		mat:     gocv.NewMat(),
		track:   &gocvTrack{id: fmt.Sprintf("video%d", id), live: true},
	}, nil
}

// probeDevice отличает запрет доступа от отсутствия камеры.
// OpenCV возвращает одну и ту же ошибку в обоих случаях.
func probeDevice(id int) error {
	if runtime.GOOS != "linux" {
		return nil
	}

	path := fmt.Sprintf("/dev/video%d", id)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	switch {
	case err == nil:
		f.Close()
		return nil
	case os.IsPermission(err):
		return entity.NewError(entity.KindPermissionDenied, err)
	default:
		return entity.NewError(entity.KindDeviceUnavailable, err)
	}
}

type gocvStream struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	track   *gocvTrack
}

// CurrentFrame читает очередной кадр с камеры.
func (s *gocvStream) CurrentFrame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.track.Live() {
		return nil, entity.ErrNoActiveFrame
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, entity.NewError(entity.KindNoActiveFrame, errors.New("cannot read frame"))
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return nil, entity.NewError(entity.KindNoActiveFrame, err)
	}
	return img, nil
}

func (s *gocvStream) Tracks() []port.MediaTrack {
	return []port.MediaTrack{&gocvTrackHandle{stream: s}}
}

func (s *gocvStream) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.track.Live() {
		return
	}
	s.track.set(false)
	s.capture.Close()
	s.mat.Close()
}

type gocvTrack struct {
	mu   sync.Mutex
	id   string
	live bool
}

func (t *gocvTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *gocvTrack) set(live bool) {
	t.mu.Lock()
	t.live = live
	t.mu.Unlock()
}

// gocvTrackHandle — дорожка, остановка которой закрывает захват.
type gocvTrackHandle struct {
	stream *gocvStream
}

func (h *gocvTrackHandle) ID() string { return h.stream.track.id }
func (h *gocvTrackHandle) Live() bool { return h.stream.track.Live() }
func (h *gocvTrackHandle) Stop()      { h.stream.stop() }

var _ port.MediaDevices = (*GoCVDevices)(nil)
