package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// CameraSession владеет живым видеопотоком. Только Activate и Deactivate
// меняют дескриптор потока.
type CameraSession struct {
	devices port.MediaDevices
	facing  entity.FacingMode
	logger  zerolog.Logger

	mu     sync.Mutex
	stream port.MediaStream
}

// NewCameraSession создаёт сессию с предпочтением по камере facing.
func NewCameraSession(devices port.MediaDevices, facing entity.FacingMode, logger zerolog.Logger) *CameraSession {
	if facing == "" {
		facing = entity.FacingEnvironment
	}
	return &CameraSession{
		devices: devices,
		facing:  facing,
		logger:  logger.With().Str("component", "camera").Logger(),
	}
}

// Activate запрашивает поток. Активная сессия сначала закрывается,
// при ошибке активной сессии не остаётся.
func (s *CameraSession) Activate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked()

	if s.devices == nil {
		return entity.NewError(entity.KindDeviceUnavailable, errors.New("no media devices configured"))
	}

	stream, err := s.devices.GetUserMedia(ctx, entity.MediaConstraints{Facing: s.facing})
	if err != nil {
		de := entity.AsDetectionError(err)
		if de.Kind != entity.KindPermissionDenied && de.Kind != entity.KindDeviceUnavailable {
			de = entity.NewError(entity.KindDeviceUnavailable, err)
		}
		s.logger.Warn().Err(err).Str("kind", string(de.Kind)).Msg("camera access failed")
		return de
	}

	if liveTracks(stream) == 0 {
		stopTracks(stream)
		s.logger.Warn().Msg("granted stream has no live tracks")
		return entity.NewError(entity.KindDeviceUnavailable, errors.New("stream has no live tracks"))
	}

	s.stream = stream
	s.logger.Info().Str("facing", string(s.facing)).Int("tracks", len(stream.Tracks())).Msg("camera activated")

	return nil
}

// Deactivate останавливает все дорожки и освобождает поток.
// Повторный вызов ничего не делает.
func (s *CameraSession) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		s.logger.Info().Msg("camera deactivated")
	}
	s.releaseLocked()
}

// Active сообщает, есть ли поток хотя бы с одной живой дорожкой.
func (s *CameraSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stream != nil && liveTracks(s.stream) > 0
}

// Source возвращает текущий источник кадров или nil.
func (s *CameraSession) Source() port.FrameSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}
	return s.stream
}

// Facing возвращает предпочтение по камере.
func (s *CameraSession) Facing() entity.FacingMode {
	return s.facing
}

func (s *CameraSession) releaseLocked() {
	if s.stream == nil {
		return
	}
	stopTracks(s.stream)
	s.stream = nil
}

func liveTracks(stream port.MediaStream) int {
	n := 0
	for _, t := range stream.Tracks() {
		if t.Live() {
			n++
		}
	}
	return n
}

func stopTracks(stream port.MediaStream) {
	for _, t := range stream.Tracks() {
		t.Stop()
	}
}
