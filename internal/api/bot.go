package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	// Декодеры для фото из чата
	_ "image/jpeg"
	_ "image/png"

	app "colorcam/internal/application"
	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

const (
	msgStart = `👋 ¡Hola! Soy un detector de colores para personas con daltonismo.

📋 Comandos:
/camera — activar la cámara
/identify — identificar el color en el centro de la imagen
/status — estado actual
/stop — detener la cámara
/help — ayuda

📸 También puedes enviarme una foto.`

	msgHelp = `ℹ️ Cómo usar el bot:

1️⃣ /camera activa la cámara
2️⃣ Apunta al objeto y envía /identify
3️⃣ Recibirás el nombre del color y su código hexadecimal

💡 Consejos:
• Usa buena iluminación
• Centra el objeto en la imagen

/cancel — dejar de recibir resultados`

	msgCameraOn       = "📷 Cámara activada. Envía /identify para detectar el color."
	msgCameraOff      = "📷 La cámara no está activa. Envía /camera para activarla."
	msgCameraStopped  = "⏹ Cámara detenida."
	msgAnalyzing      = "⏳ Analizando..."
	msgBusy           = "⏳ Ya se está analizando una imagen."
	msgUnsubscribed   = "❌ Ya no recibirás resultados. Envía /camera para volver."
	msgUnknownCommand = "❓ Comando desconocido. Usa /help."
	msgSendCommand    = "📋 Usa /identify o envía una foto."
	msgPhotoError     = "⚠️ No se pudo leer la foto. Intenta con otra."

	msgStatusIdle      = "💤 En espera."
	msgStatusCapturing = "📸 Capturando imagen..."
	msgStatusAwaiting  = "⏳ Analizando... (límite %s)"
	msgResult          = "🎨 Color Detectado\n%s\n%s"
	msgFailed          = "⚠️ %s"
)

// PhotoIdentifier распознаёт цвет на присланном изображении.
type PhotoIdentifier func(ctx context.Context, img image.Image) (entity.ColorResult, error)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	sender     messageSender
	controller *app.DetectionController
	viewers    port.ViewerRepository
	identify   PhotoIdentifier
	fetch      func(fileID string) ([]byte, error)
	logger     zerolog.Logger

	wg sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(
	token string,
	controller *app.DetectionController,
	viewers port.ViewerRepository,
	identify PhotoIdentifier,
	logger zerolog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, controller, viewers, identify, logger)
	b.api = api
	b.fetch = b.downloadFile
	b.logger.Info().Str("account", api.Self.UserName).Msg("authorized")

	return b, nil
}

func newBot(
	sender messageSender,
	controller *app.DetectionController,
	viewers port.ViewerRepository,
	identify PhotoIdentifier,
	logger zerolog.Logger,
) *Bot {
	return &Bot{
		sender:     sender,
		controller: controller,
		viewers:    viewers,
		identify:   identify,
		logger:     logger.With().Str("component", "telegram").Logger(),
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendCommand)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "camera":
		if err := b.controller.ActivateCamera(ctx); err != nil {
			b.sendMessage(chatID, fmt.Sprintf(msgFailed, app.UserMessage(err)))
			return
		}
		b.join(ctx, msg)
		b.sendMessage(chatID, msgCameraOn)

	case "identify":
		b.startIdentify(ctx, msg)

	case "status":
		b.sendMessage(chatID, b.renderState())

	case "stop":
		b.controller.StopCamera()
		b.broadcast(ctx, chatID, msgCameraStopped)
		if err := b.viewers.Clear(ctx); err != nil {
			b.logger.Error().Err(err).Msg("clear viewers")
		}

	case "cancel":
		if err := b.viewers.Leave(ctx, chatID); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("leave viewers")
		}
		b.sendMessage(chatID, msgUnsubscribed)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) startIdentify(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	a, err := b.controller.Identify()
	switch {
	case errors.Is(err, app.ErrDetectionInProgress):
		b.sendMessage(chatID, msgBusy)
		return
	case errors.Is(err, app.ErrCameraInactive):
		b.sendMessage(chatID, msgCameraOff)
		return
	case err != nil:
		b.sendMessage(chatID, fmt.Sprintf(msgFailed, app.UserMessage(err)))
		return
	}

	b.join(ctx, msg)
	b.sendMessage(chatID, msgAnalyzing)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.awaitAttempt(ctx, chatID, a)
	}()
}

// awaitAttempt ждёт итога попытки и рассылает его зрителям.
// Отброшенная попытка ничего не рассылает.
func (b *Bot) awaitAttempt(ctx context.Context, chatID int64, a *app.Attempt) {
	select {
	case <-a.Done():
	case <-ctx.Done():
		return
	}

	st := b.controller.State()
	if st.AttemptID() != a.ID {
		return
	}
	switch st.Phase() {
	case entity.PhaseSucceeded, entity.PhaseFailed:
		b.broadcast(ctx, chatID, b.renderState())
	}
}

// handlePhoto распознаёт цвет на присланном фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.identify == nil || b.fetch == nil {
		b.sendMessage(chatID, msgSendCommand)
		return
	}

	b.sendMessage(chatID, msgAnalyzing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.identifyPhoto(ctx, chatID, photo.FileID)
	}()
}

// identifyPhoto скачивает фото и отвечает цветом, не задерживая цикл обновлений
func (b *Bot) identifyPhoto(ctx context.Context, chatID int64, fileID string) {
	data, err := b.fetch(fileID)
	if err != nil {
		b.logger.Error().Err(err).Msg("download photo")
		b.sendMessage(chatID, msgPhotoError)
		return
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		b.logger.Warn().Err(err).Int("bytes", len(data)).Msg("decode photo")
		b.sendMessage(chatID, msgPhotoError)
		return
	}

	result, err := b.identify(ctx, img)
	if err != nil {
		b.sendMessage(chatID, fmt.Sprintf(msgFailed, app.UserMessage(err)))
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgResult, result.ColorName, result.HexCode))
}

// renderState описывает текущее состояние контроллера
func (b *Bot) renderState() string {
	st := b.controller.State()

	switch st.Phase() {
	case entity.PhaseCapturing:
		return msgStatusCapturing
	case entity.PhaseAwaitingResponse:
		deadline, _ := st.Deadline()
		return fmt.Sprintf(msgStatusAwaiting, time.Until(deadline).Round(time.Second))
	case entity.PhaseSucceeded:
		result, _ := st.Result()
		return fmt.Sprintf(msgResult, result.ColorName, result.HexCode)
	case entity.PhaseFailed:
		failure, _ := st.Failure()
		return fmt.Sprintf(msgFailed, app.UserMessage(failure))
	}

	if !b.controller.CameraActive() {
		return msgCameraOff
	}
	return msgStatusIdle
}

func (b *Bot) join(ctx context.Context, msg *tgbotapi.Message) {
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	if _, err := b.viewers.Join(ctx, userID, msg.Chat.ID); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("join viewers")
	}
}

// broadcast отправляет текст всем зрителям и чату origin
func (b *Bot) broadcast(ctx context.Context, origin int64, text string) {
	viewers, err := b.viewers.List(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("list viewers")
	}

	sent := map[int64]bool{origin: true}
	b.sendMessage(origin, text)
	for _, v := range viewers {
		if sent[v.ChatID] {
			continue
		}
		sent[v.ChatID] = true
		b.sendMessage(v.ChatID, text)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	resp, err := http.Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}
