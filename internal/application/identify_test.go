package app

import (
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"colorcam/internal/domain/entity"
	"colorcam/internal/infrastructure/camera"
)

type staticDetector struct {
	result entity.ColorResult
	err    error
}

func (d staticDetector) Detect(ctx context.Context, payload entity.EncodedPayload, timeout time.Duration) (entity.ColorResult, error) {
	if _, err := payload.Decode(); err != nil {
		return entity.ColorResult{}, err
	}
	return d.result, d.err
}

func TestIdentifyOnce_Success(t *testing.T) {
	devices := camera.NewStillDevices(solid(800, 600, color.RGBA{R: 220, G: 20, B: 60, A: 255}))
	want := entity.ColorResult{ColorName: "Rojo Carmesí", HexCode: "#DC143C"}

	got, err := IdentifyOnce(context.Background(), devices, entity.FacingUser, staticDetector{result: want},
		DefaultControllerConfig(), nil, zerolog.Nop())

	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, entity.FacingUser, devices.LastConstraints().Facing)
	require.Equal(t, 0, devices.LiveStreams())
}

func TestIdentifyOnce_Failure(t *testing.T) {
	devices := camera.NewStillDevices(solid(64, 64, color.RGBA{A: 255}))

	_, err := IdentifyOnce(context.Background(), devices, entity.FacingEnvironment,
		staticDetector{err: entity.NewServerError(500, "modelo no disponible")},
		DefaultControllerConfig(), nil, zerolog.Nop())

	require.ErrorIs(t, err, entity.ErrServer)
	require.Equal(t, "modelo no disponible", UserMessage(err))
	require.Equal(t, 0, devices.LiveStreams())
}

func TestIdentifyOnce_NoCamera(t *testing.T) {
	devices := camera.NewStillDevices(nil)
	devices.Fail(entity.NewError(entity.KindDeviceUnavailable, nil))

	_, err := IdentifyOnce(context.Background(), devices, entity.FacingEnvironment,
		staticDetector{}, DefaultControllerConfig(), nil, zerolog.Nop())

	require.ErrorIs(t, err, entity.ErrDeviceUnavailable)
}

func TestIdentifyOnce_ContextCancelled(t *testing.T) {
	devices := camera.NewStillDevices(solid(64, 64, color.RGBA{A: 255}))
	detector := newBlockingDetector(true)
	defer close(detector.release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := IdentifyOnce(ctx, devices, entity.FacingEnvironment, detector,
		DefaultControllerConfig(), nil, zerolog.Nop())

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, devices.LiveStreams())
}
