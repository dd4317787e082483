// Package rest — HTTP-эндпоинт распознавания цвета.
package rest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
	"colorcam/internal/infrastructure/metrics"
)

const (
	// DetectPath — путь эндпоинта распознавания.
	DetectPath = "/api/detect-color"

	// DefaultAnalyzeTimeout ограничивает обращение к модели.
	DefaultAnalyzeTimeout = 30 * time.Second

	// maxBodyBytes ограничивает тело запроса с кадром.
	maxBodyBytes int64 = 8 << 20

	msgImageRequired    = "La información de la imagen es requerida."
	msgMethodNotAllowed = "Method Not Allowed"
	msgAnalyzeFailed    = "No se pudo analizar el color: "
	msgInvalidAnswer    = "Respuesta de la API inválida."
)

// Options — параметры сервера.
type Options struct {
	Timeout        time.Duration    // срок анализа одного кадра
	AllowedOrigins []string         // CORS, пусто — любой источник
	Metrics        *metrics.Metrics // может быть nil
	Logger         zerolog.Logger
}

type server struct {
	analyzer port.ColorAnalyzer
	timeout  time.Duration
	logger   zerolog.Logger
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	ColorName string `json:"colorName"`
	HexCode   string `json:"hexCode"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// NewRouter собирает chi-роутер эндпоинта.
func NewRouter(analyzer port.ColorAnalyzer, opts Options) http.Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAnalyzeTimeout
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &server{
		analyzer: analyzer,
		timeout:  opts.Timeout,
		logger:   opts.Logger.With().Str("component", "rest").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(opts.Metrics.Middleware)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: msgMethodNotAllowed})
	})

	r.Post(DetectPath, s.detectColor)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	return r
}

func (s *server) detectColor(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msgImageRequired})
		return
	}
	image := strings.TrimSpace(req.Image)
	if image == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msgImageRequired})
		return
	}
	if _, err := base64.StdEncoding.DecodeString(image); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: msgImageRequired})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	name, hex, err := s.analyzer.Analyze(ctx, image)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("analyze failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: msgAnalyzeFailed + err.Error()})
		return
	}

	result, err := entity.NewColorResult(name, hex)
	if err != nil {
		s.logger.Warn().Err(err).Str("color", name).Str("hex", hex).Msg("model answer rejected")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: msgAnalyzeFailed + msgInvalidAnswer})
		return
	}

	writeJSON(w, http.StatusOK, detectResponse{ColorName: result.ColorName, HexCode: result.HexCode})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
