// Package detectclient — клиент эндпоинта распознавания цвета.
package detectclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

const (
	// DefaultEndpoint — адрес эндпоинта по умолчанию.
	DefaultEndpoint = "http://localhost:8080/api/detect-color"

	// maxBodySize ограничивает чтение ответа.
	maxBodySize = 1 << 20

	msgServerFallback = "Ocurrió un error en el servidor."
)

// Client отправляет кадры на эндпоинт и проверяет ответы.
type Client struct {
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт HTTP-клиент.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "detectclient").Logger()
	}
}

// New создаёт клиент для endpoint. Срок запроса задаётся в Detect,
// у HTTP-клиента таймаутов на весь запрос нет.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint: endpoint,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint возвращает адрес эндпоинта.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	ColorName string `json:"colorName"`
	HexCode   string `json:"hexCode"`
}

type errorResponse struct {
	Message *string `json:"message"`
}

// Detect отправляет один запрос. По истечении timeout или при отмене ctx
// запрос прерывается с ошибкой Timeout.
func (c *Client) Detect(ctx context.Context, payload entity.EncodedPayload, timeout time.Duration) (entity.ColorResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(detectRequest{Image: payload.Data})
	if err != nil {
		return entity.ColorResult{}, entity.NewError(entity.KindUnknown, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return entity.ColorResult{}, entity.NewError(entity.KindNetwork, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return entity.ColorResult{}, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return entity.ColorResult{}, c.transportError(ctx, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Dur("latency", time.Since(start)).
		Msg("detect response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return entity.ColorResult{}, parseError(resp, raw)
	}

	var answer detectResponse
	if err := json.Unmarshal(raw, &answer); err != nil {
		return entity.ColorResult{}, &entity.DetectionError{
			Kind:    entity.KindInvalidResponse,
			Message: "undecodable body",
			Err:     err,
		}
	}

	result, err := entity.NewColorResult(answer.ColorName, answer.HexCode)
	if err != nil {
		c.logger.Warn().Err(err).Msg("rejected untrusted answer")
		return entity.ColorResult{}, err
	}

	return result, nil
}

// transportError отличает прерывание по сроку или отмене от сетевого сбоя.
func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return entity.NewError(entity.KindTimeout, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return entity.NewError(entity.KindTimeout, err)
	}
	return entity.NewError(entity.KindNetwork, err)
}

// parseError читает сообщение сервера; нечитаемое тело даёт ServerError со статусом.
func parseError(resp *http.Response, raw []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		return &entity.DetectionError{
			Kind:    entity.KindServer,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Error del servidor: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Err:     err,
		}
	}

	message := msgServerFallback
	if errResp.Message != nil && *errResp.Message != "" {
		message = *errResp.Message
	}
	return entity.NewServerError(resp.StatusCode, message)
}

// Проверка реализации интерфейса
var _ port.ColorDetector = (*Client)(nil)
