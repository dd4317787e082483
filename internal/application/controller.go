package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// DefaultDetectTimeout — срок ответа сервиса распознавания.
const DefaultDetectTimeout = 12 * time.Second

var (
	// ErrDetectionInProgress — попытка уже выполняется, новая не запускается.
	ErrDetectionInProgress = errors.New("detection already in progress")

	// ErrCameraInactive — распознавание без активной камеры.
	ErrCameraInactive = errors.New("camera is not active")
)

// ControllerConfig — неизменяемые параметры попытки распознавания.
type ControllerConfig struct {
	Timeout      time.Duration // срок ответа сервиса
	MaxDimension int           // предел большей стороны кадра
	Quality      float64       // качество JPEG 0..1
}

// DefaultControllerConfig возвращает параметры по умолчанию.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Timeout:      DefaultDetectTimeout,
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultJPEGQuality,
	}
}

// AttemptObserver получает итог каждой попытки.
type AttemptObserver interface {
	ObserveAttempt(outcome string, d time.Duration)
}

// Attempt — одна попытка распознавания.
type Attempt struct {
	ID        string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Done закрывается, когда итог попытки применён или отброшен.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// DetectionController — единственный владелец состояния распознавания.
type DetectionController struct {
	camera    *CameraSession
	extractor *FrameExtractor
	encoder   *ImageEncoder
	detector  port.ColorDetector
	observer  AttemptObserver
	cfg       ControllerConfig
	logger    zerolog.Logger
	now       func() time.Time

	baseCtx  context.Context
	stopBase context.CancelFunc

	mu      sync.Mutex
	state   entity.DetectionState
	current *Attempt
}

// NewDetectionController собирает контроллер. observer может быть nil.
func NewDetectionController(
	camera *CameraSession,
	detector port.ColorDetector,
	cfg ControllerConfig,
	observer AttemptObserver,
	logger zerolog.Logger,
) *DetectionController {
	defaults := DefaultControllerConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = defaults.MaxDimension
	}
	if cfg.Quality <= 0 || cfg.Quality > 1 {
		cfg.Quality = defaults.Quality
	}

	baseCtx, stopBase := context.WithCancel(context.Background())

	return &DetectionController{
		camera:    camera,
		extractor: NewFrameExtractor(),
		encoder:   NewImageEncoder(),
		detector:  detector,
		observer:  observer,
		cfg:       cfg,
		logger:    logger.With().Str("component", "controller").Logger(),
		now:       time.Now,
		baseCtx:   baseCtx,
		stopBase:  stopBase,
		state:     entity.IdleState(),
	}
}

// State возвращает снимок текущего состояния.
func (c *DetectionController) State() entity.DetectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CameraActive сообщает, активна ли камера.
func (c *DetectionController) CameraActive() bool {
	return c.camera.Active()
}

// Source возвращает живой поток для отображения или nil.
func (c *DetectionController) Source() port.FrameSource {
	return c.camera.Source()
}

// Config возвращает параметры попыток.
func (c *DetectionController) Config() ControllerConfig {
	return c.cfg
}

// ActivateCamera (пере)запускает камеру. Выполняющаяся попытка отбрасывается,
// старый поток останавливается до запроса нового.
func (c *DetectionController) ActivateCamera(ctx context.Context) error {
	c.mu.Lock()
	c.discardLocked("camera reactivated")
	c.state = entity.IdleState()
	c.camera.Deactivate()
	c.mu.Unlock()

	err := c.camera.Activate(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy() {
		return err
	}
	if err != nil {
		c.state = entity.FailedState("", entity.AsDetectionError(err))
		return err
	}
	c.state = entity.IdleState()
	return nil
}

// StopCamera из любого состояния возвращает контроллер в Idle.
// Поздний ответ отброшенной попытки не применяется.
func (c *DetectionController) StopCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.discardLocked("camera stopped")
	c.state = entity.IdleState()
	c.camera.Deactivate()
}

// Identify запускает попытку распознавания.
// ErrDetectionInProgress — если попытка уже идёт, ErrCameraInactive — без камеры.
func (c *DetectionController) Identify() (*Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy() {
		return nil, ErrDetectionInProgress
	}
	if !c.camera.Active() {
		// Поток без живых дорожек освобождаем сразу.
		c.camera.Deactivate()
		return nil, ErrCameraInactive
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	a := &Attempt{
		ID:        uuid.NewString(),
		StartedAt: c.now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	c.current = a
	c.state = entity.CapturingState(a.ID)

	c.logger.Debug().Str("attempt_id", a.ID).Msg("capturing frame")
	go c.run(ctx, a)

	return a, nil
}

// Close останавливает камеру и все попытки.
func (c *DetectionController) Close() {
	c.StopCamera()
	c.stopBase()
}

type detectOutcome struct {
	result entity.ColorResult
	err    error
}

func (c *DetectionController) run(ctx context.Context, a *Attempt) {
	defer close(a.done)
	defer a.cancel()

	frame, err := c.extractor.Extract(c.camera.Source(), c.cfg.MaxDimension)
	if err != nil {
		// Поток умер: освобождаем дескриптор, чтобы сессия не числилась активной.
		if errors.Is(err, entity.ErrNoActiveFrame) && !c.camera.Active() {
			c.releaseCamera(a)
		}
		c.finish(a, entity.ColorResult{}, err)
		return
	}

	payload, err := c.encoder.Encode(frame, c.cfg.Quality)
	if err != nil {
		c.finish(a, entity.ColorResult{}, err)
		return
	}

	deadline := c.now().Add(c.cfg.Timeout)
	if !c.transition(a, entity.AwaitingState(a.ID, deadline)) {
		return
	}
	c.logger.Debug().
		Str("attempt_id", a.ID).
		Int("width", frame.Width).
		Int("height", frame.Height).
		Int("payload_bytes", payload.Size()).
		Msg("awaiting response")

	// Срок и внешняя остановка идут через один контекст.
	dctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out := make(chan detectOutcome, 1)
	go func() {
		result, err := c.detector.Detect(dctx, payload, c.cfg.Timeout)
		out <- detectOutcome{result: result, err: err}
	}()

	select {
	case o := <-out:
		c.finish(a, o.result, o.err)
	case <-dctx.Done():
		c.finish(a, entity.ColorResult{}, entity.NewError(entity.KindTimeout, dctx.Err()))
	}
}

// transition применяет состояние, если попытка всё ещё текущая.
func (c *DetectionController) transition(a *Attempt, st entity.DetectionState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != a {
		return false
	}
	c.state = st
	return true
}

func (c *DetectionController) releaseCamera(a *Attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == a {
		c.camera.Deactivate()
	}
}

func (c *DetectionController) finish(a *Attempt, result entity.ColorResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := c.now().Sub(a.StartedAt)
	log := c.logger.With().Str("attempt_id", a.ID).Dur("elapsed", elapsed).Logger()

	if c.current != a {
		log.Debug().Msg("discarding result of superseded attempt")
		c.observe("discarded", elapsed)
		return
	}
	c.current = nil

	if err != nil {
		de := entity.AsDetectionError(err)
		c.state = entity.FailedState(a.ID, de)
		log.Warn().Err(err).Str("kind", string(de.Kind)).Msg("detection failed")
		c.observe(string(de.Kind), elapsed)
		return
	}

	c.state = entity.SucceededState(a.ID, result)
	log.Info().Str("color", result.ColorName).Str("hex", result.HexCode).Msg("color detected")
	c.observe("succeeded", elapsed)
}

func (c *DetectionController) discardLocked(reason string) {
	if c.current == nil {
		return
	}
	c.logger.Info().Str("attempt_id", c.current.ID).Str("reason", reason).Msg("attempt discarded")
	c.current.cancel()
	c.current = nil
}

func (c *DetectionController) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAttempt(outcome, d)
	}
}
