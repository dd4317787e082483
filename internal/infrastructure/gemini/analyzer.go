// Package gemini — анализатор цвета на Gemini через OpenAI-совместимый API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

const (
	// DefaultModel — модель по умолчанию.
	DefaultModel = "gemini-2.5-flash"

	// DefaultBaseURL — OpenAI-совместимый адрес Gemini.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

	prompt = "Eres una herramienta experta en análisis de color para personas con daltonismo. " +
		"Analiza el color predominante en el centro de esta imagen. " +
		"Proporciona un nombre de color descriptivo y fácil de usar en español " +
		"(ej. 'Azul Real' en lugar de 'Azul'), y su código hexadecimal correspondiente. " +
		"Responde ÚNICAMENTE con un objeto JSON que coincida con el esquema proporcionado. " +
		"No agregues ningún otro texto ni formato markdown."
)

// ErrMissingAPIKey — ключ API не задан.
var ErrMissingAPIKey = errors.New("missing Gemini API key")

var colorSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"colorName": {
			Type:        jsonschema.String,
			Description: "El nombre descriptivo y común del color en español (ej. 'Rojo Carmesí', 'Azul Cielo').",
		},
		"hexCode": {
			Type:        jsonschema.String,
			Description: "El código hexadecimal del color (ej. '#FF0000').",
		},
	},
	Required: []string{"colorName", "hexCode"},
}

// Config — параметры анализатора.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient openai.HTTPDoer // nil — клиент по умолчанию
}

// Analyzer спрашивает у модели цвет в центре кадра.
type Analyzer struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// New создаёт анализатор.
func New(cfg Config, logger zerolog.Logger) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	return &Analyzer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.With().Str("component", "gemini").Str("model", cfg.Model).Logger(),
	}, nil
}

type answer struct {
	ColorName string `json:"colorName"`
	HexCode   string `json:"hexCode"`
}

// Analyze отправляет кадр модели. Ответ возвращается без проверки.
func (a *Analyzer) Analyze(ctx context.Context, jpegBase64 string) (string, string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: fmt.Sprintf("data:%s;base64,%s", entity.MimeTypeJPEG, jpegBase64),
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "color",
				Schema: &colorSchema,
			},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error().Err(err).Msg("chat completion failed")
		return "", "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", errors.New("empty model response")
	}

	text := stripFences(resp.Choices[0].Message.Content)
	a.logger.Debug().Str("answer", text).Msg("model answered")

	var ans answer
	if err := json.Unmarshal([]byte(text), &ans); err != nil {
		return "", "", fmt.Errorf("decode model answer: %w", err)
	}

	return ans.ColorName, ans.HexCode, nil
}

// stripFences убирает markdown-ограждение ```json ... ```.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var _ port.ColorAnalyzer = (*Analyzer)(nil)
