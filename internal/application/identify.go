package app

import (
	"context"

	"github.com/rs/zerolog"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// IdentifyOnce активирует камеру devices, выполняет одну попытку и
// освобождает камеру. Ошибка — *entity.DetectionError либо ошибка ctx.
func IdentifyOnce(
	ctx context.Context,
	devices port.MediaDevices,
	facing entity.FacingMode,
	detector port.ColorDetector,
	cfg ControllerConfig,
	observer AttemptObserver,
	logger zerolog.Logger,
) (entity.ColorResult, error) {
	session := NewCameraSession(devices, facing, logger)
	c := NewDetectionController(session, detector, cfg, observer, logger)
	defer c.Close()

	if err := c.ActivateCamera(ctx); err != nil {
		return entity.ColorResult{}, err
	}

	a, err := c.Identify()
	if err != nil {
		return entity.ColorResult{}, err
	}

	select {
	case <-a.Done():
	case <-ctx.Done():
		c.StopCamera()
		<-a.Done()
		return entity.ColorResult{}, ctx.Err()
	}

	st := c.State()
	if result, ok := st.Result(); ok {
		return result, nil
	}
	if failure, ok := st.Failure(); ok {
		return entity.ColorResult{}, failure
	}
	return entity.ColorResult{}, entity.NewError(entity.KindUnknown, nil)
}
