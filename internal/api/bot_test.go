package telegram

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	app "colorcam/internal/application"
	"colorcam/internal/domain/entity"
	"colorcam/internal/infrastructure/camera"
	"colorcam/internal/infrastructure/storage"
)

type sent struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sent
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.mu.Lock()
		s.msgs = append(s.msgs, sent{chatID: m.ChatID, text: m.Text})
		s.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.msgs...)
}

func (s *fakeSender) last(chatID int64) string {
	msgs := s.all()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].chatID == chatID {
			return msgs[i].text
		}
	}
	return ""
}

type fakeDetector struct {
	result entity.ColorResult
	err    error
}

func (d fakeDetector) Detect(ctx context.Context, payload entity.EncodedPayload, timeout time.Duration) (entity.ColorResult, error) {
	return d.result, d.err
}

var skyBlue = entity.ColorResult{ColorName: "Azul Cielo", HexCode: "#4FA8E0"}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 79, G: 168, B: 224, A: 255})
		}
	}
	return img
}

func newTestBot(t *testing.T, detector fakeDetector) (*Bot, *fakeSender, *camera.StillDevices) {
	t.Helper()

	devices := camera.NewStillDevices(testImage())
	session := app.NewCameraSession(devices, entity.FacingEnvironment, zerolog.Nop())
	controller := app.NewDetectionController(session, detector, app.DefaultControllerConfig(), nil, zerolog.Nop())
	t.Cleanup(controller.Close)

	sender := &fakeSender{}
	b := newBot(sender, controller, storage.NewMemoryViewerRepository(), nil, zerolog.Nop())

	return b, sender, devices
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.Fields(text)[0]
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID * 10},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name)},
		},
	}
}

func TestBot_IdentifyBroadcastsResult(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{result: skyBlue})
	ctx := context.Background()

	b.handleMessage(ctx, command(1, "/camera"))
	require.Equal(t, msgCameraOn, sender.last(1))

	b.handleMessage(ctx, command(2, "/camera"))
	b.handleMessage(ctx, command(1, "/identify"))
	b.wg.Wait()

	want := "🎨 Color Detectado\nAzul Cielo\n#4FA8E0"
	require.Equal(t, want, sender.last(1))
	require.Equal(t, want, sender.last(2))

	b.handleMessage(ctx, command(1, "/status"))
	require.Equal(t, want, sender.last(1))
}

func TestBot_IdentifyWithoutCamera(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{result: skyBlue})

	b.handleMessage(context.Background(), command(1, "/identify"))
	b.wg.Wait()

	require.Equal(t, msgCameraOff, sender.last(1))
}

func TestBot_ServerErrorMessage(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{err: entity.NewServerError(500, "modelo no disponible")})
	ctx := context.Background()

	b.handleMessage(ctx, command(1, "/camera"))
	b.handleMessage(ctx, command(1, "/identify"))
	b.wg.Wait()

	require.Equal(t, "⚠️ modelo no disponible", sender.last(1))
}

func TestBot_CameraPermissionDenied(t *testing.T) {
	b, sender, devices := newTestBot(t, fakeDetector{result: skyBlue})
	devices.Fail(entity.NewError(entity.KindPermissionDenied, nil))

	b.handleMessage(context.Background(), command(1, "/camera"))

	require.Equal(t, "⚠️ "+app.UserMessage(entity.ErrPermissionDenied), sender.last(1))
}

func TestBot_StopNotifiesViewers(t *testing.T) {
	b, sender, devices := newTestBot(t, fakeDetector{result: skyBlue})
	ctx := context.Background()

	b.handleMessage(ctx, command(1, "/camera"))
	b.handleMessage(ctx, command(2, "/camera"))
	b.handleMessage(ctx, command(2, "/stop"))

	require.Equal(t, msgCameraStopped, sender.last(1))
	require.Equal(t, msgCameraStopped, sender.last(2))
	require.Equal(t, 0, devices.LiveStreams())

	viewers, err := b.viewers.List(ctx)
	require.NoError(t, err)
	require.Empty(t, viewers)

	b.handleMessage(ctx, command(1, "/status"))
	require.Equal(t, msgCameraOff, sender.last(1))
}

func TestBot_CancelLeavesViewers(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{result: skyBlue})
	ctx := context.Background()

	b.handleMessage(ctx, command(1, "/camera"))
	b.handleMessage(ctx, command(2, "/camera"))
	b.handleMessage(ctx, command(2, "/cancel"))
	require.Equal(t, msgUnsubscribed, sender.last(2))

	b.handleMessage(ctx, command(1, "/identify"))
	b.wg.Wait()

	require.Equal(t, msgUnsubscribed, sender.last(2))
}

func TestBot_PlainTextAndUnknownCommand(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{})
	ctx := context.Background()

	b.handleMessage(ctx, &tgbotapi.Message{Text: "hola", Chat: &tgbotapi.Chat{ID: 1}})
	require.Equal(t, msgSendCommand, sender.last(1))

	b.handleMessage(ctx, command(1, "/dance"))
	require.Equal(t, msgUnknownCommand, sender.last(1))

	b.handleMessage(ctx, command(1, "/start"))
	require.Equal(t, msgStart, sender.last(1))
}

func TestBot_Photo(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	var gotBounds image.Rectangle
	b.fetch = func(fileID string) ([]byte, error) {
		if fileID != "big" {
			return nil, errors.New("wrong file")
		}
		return buf.Bytes(), nil
	}
	b.identify = func(ctx context.Context, img image.Image) (entity.ColorResult, error) {
		gotBounds = img.Bounds()
		return skyBlue, nil
	}

	msg := &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}},
	}
	b.handleMessage(context.Background(), msg)
	b.wg.Wait()

	require.Equal(t, image.Rect(0, 0, 32, 32), gotBounds)
	require.Equal(t, "🎨 Color Detectado\nAzul Cielo\n#4FA8E0", sender.last(1))
}

func TestBot_PhotoUndecodable(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{})
	b.fetch = func(string) ([]byte, error) { return []byte("not an image"), nil }
	var called bool
	b.identify = func(context.Context, image.Image) (entity.ColorResult, error) {
		called = true
		return entity.ColorResult{}, nil
	}

	b.handleMessage(context.Background(), &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "x"}},
	})
	b.wg.Wait()

	require.False(t, called)
	require.Equal(t, msgPhotoError, sender.last(1))
}

func TestBot_PhotoDoesNotBlockCommands(t *testing.T) {
	b, sender, _ := newTestBot(t, fakeDetector{result: skyBlue})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	release := make(chan struct{})
	b.fetch = func(string) ([]byte, error) { return buf.Bytes(), nil }
	b.identify = func(ctx context.Context, img image.Image) (entity.ColorResult, error) {
		<-release
		return skyBlue, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.handleMessage(context.Background(), &tgbotapi.Message{
			Chat:  &tgbotapi.Chat{ID: 1},
			Photo: []tgbotapi.PhotoSize{{FileID: "x"}},
		})
		b.handleMessage(context.Background(), command(2, "/status"))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("photo analysis blocked the update loop")
	}
	require.Equal(t, msgCameraOff, sender.last(2))
	require.Equal(t, msgAnalyzing, sender.last(1))

	close(release)
	b.wg.Wait()
	require.Equal(t, "🎨 Color Detectado\nAzul Cielo\n#4FA8E0", sender.last(1))
}
