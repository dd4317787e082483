package container

import (
	"context"
	"image"
	"net/http"

	"github.com/rs/zerolog"

	"colorcam/config"
	"colorcam/internal/api/rest"
	app "colorcam/internal/application"
	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
	"colorcam/internal/infrastructure/camera"
	"colorcam/internal/infrastructure/detectclient"
	"colorcam/internal/infrastructure/gemini"
	"colorcam/internal/infrastructure/metrics"
	"colorcam/internal/infrastructure/storage"
)

type Container struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	Detector   *detectclient.Client
	Camera     *app.CameraSession
	Controller *app.DetectionController
	Viewers    *storage.MemoryViewerRepository
}

// New собирает клиентскую часть: камеру devices, контроллер и клиент распознавания.
func New(cfg *config.Config, devices port.MediaDevices, logger zerolog.Logger) *Container {
	m := metrics.New()
	detector := detectclient.New(cfg.DetectEndpoint, detectclient.WithLogger(logger))
	session := app.NewCameraSession(devices, entity.FacingMode(cfg.CameraFacing), logger)
	controller := app.NewDetectionController(session, detector, controllerConfig(cfg), m, logger)

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Detector:   detector,
		Camera:     session,
		Controller: controller,
		Viewers:    storage.NewMemoryViewerRepository(),
	}
}

// DefaultDevices возвращает камеры устройства из конфигурации.
func DefaultDevices(cfg *config.Config) port.MediaDevices {
	return camera.NewGoCVDevices(cfg.CameraRearDevice, cfg.CameraFrontDevice)
}

// IdentifyImage распознаёт цвет на неподвижном изображении отдельной попыткой,
// не трогая основную камеру.
func (c *Container) IdentifyImage(ctx context.Context, img image.Image) (entity.ColorResult, error) {
	return app.IdentifyOnce(ctx, camera.NewStillDevices(img), entity.FacingMode(c.Config.CameraFacing),
		c.Detector, controllerConfig(c.Config), c.Metrics, c.Logger)
}

// Endpoint — серверная часть: эндпоинт распознавания поверх Gemini.
// Камеры и клиента распознавания в ней нет.
type Endpoint struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Router  http.Handler
}

// NewEndpoint собирает эндпоинт распознавания.
func NewEndpoint(cfg *config.Config, logger zerolog.Logger) (*Endpoint, error) {
	analyzer, err := gemini.New(gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	return &Endpoint{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Router:  rest.NewRouter(analyzer, rest.Options{Metrics: m, Logger: logger}),
	}, nil
}

// Close останавливает камеру и выполняющиеся попытки.
func (c *Container) Close() {
	c.Controller.Close()
}

func controllerConfig(cfg *config.Config) app.ControllerConfig {
	return app.ControllerConfig{
		Timeout:      cfg.DetectTimeout,
		MaxDimension: cfg.MaxDimension,
		Quality:      cfg.JPEGQuality,
	}
}
