package camera

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	// Декодеры для LoadStillDevices
	_ "image/jpeg"
	_ "image/png"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// StillDevices выдаёт видеопоток, показывающий неподвижное изображение.
// Используется без камеры (identify --image) и в тестах.
type StillDevices struct {
	mu      sync.Mutex
	frame   image.Image
	failErr error
	opened  int
	streams []*stillStream
	last    entity.MediaConstraints
}

// NewStillDevices создаёт устройство с заданным кадром.
func NewStillDevices(frame image.Image) *StillDevices {
	return &StillDevices{frame: frame}
}

// LoadStillDevices читает кадр из файла JPEG или PNG.
func LoadStillDevices(path string) (*StillDevices, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return NewStillDevices(img), nil
}

// GetUserMedia выдаёт новый поток с текущим кадром.
func (d *StillDevices) GetUserMedia(ctx context.Context, constraints entity.MediaConstraints) (port.MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, entity.NewError(entity.KindDeviceUnavailable, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = constraints
	if d.failErr != nil {
		return nil, d.failErr
	}

	d.opened++
	s := &stillStream{devices: d, track: &stillTrack{id: fmt.Sprintf("still-%d", d.opened), live: true}}
	d.streams = append(d.streams, s)

	return s, nil
}

// Fail заставляет следующие запросы потока завершаться ошибкой err; nil снимает отказ.
func (d *StillDevices) Fail(err error) {
	d.mu.Lock()
	d.failErr = err
	d.mu.Unlock()
}

// SetFrame меняет показываемый кадр, например при повороте устройства.
func (d *StillDevices) SetFrame(frame image.Image) {
	d.mu.Lock()
	d.frame = frame
	d.mu.Unlock()
}

// Opened возвращает число выданных потоков.
func (d *StillDevices) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// LiveStreams возвращает число потоков с живыми дорожками.
func (d *StillDevices) LiveStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, s := range d.streams {
		if s.track.Live() {
			n++
		}
	}
	return n
}

// LastConstraints возвращает ограничения последнего запроса.
func (d *StillDevices) LastConstraints() entity.MediaConstraints {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *StillDevices) currentFrame() image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

type stillStream struct {
	devices *StillDevices
	track   *stillTrack
}

func (s *stillStream) CurrentFrame() (image.Image, error) {
	if !s.track.Live() {
		return nil, entity.ErrNoActiveFrame
	}
	frame := s.devices.currentFrame()
	if frame == nil {
		return nil, entity.ErrNoActiveFrame
	}
	return frame, nil
}

func (s *stillStream) Tracks() []port.MediaTrack {
	return []port.MediaTrack{s.track}
}

type stillTrack struct {
	mu   sync.Mutex
	id   string
	live bool
}

func (t *stillTrack) ID() string { return t.id }

func (t *stillTrack) Live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func (t *stillTrack) Stop() {
	t.mu.Lock()
	t.live = false
	t.mu.Unlock()
}

var _ port.MediaDevices = (*StillDevices)(nil)
