package detectclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"colorcam/internal/domain/entity"
)

var testPayload = entity.EncodedPayload{MimeType: entity.MimeTypeJPEG, Data: "/9j/AAAA"}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDetect_Success(t *testing.T) {
	var (
		method      string
		contentType string
		sent        map[string]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&sent)

		_, _ = w.Write([]byte(`{"colorName":"Azul Cielo","hexCode":"#4FA8E0"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	result, err := client.Detect(context.Background(), testPayload, time.Second)
	require.NoError(t, err)
	require.Equal(t, entity.ColorResult{ColorName: "Azul Cielo", HexCode: "#4FA8E0"}, result)

	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, map[string]string{"image": testPayload.Data}, sent)
}

func TestDetect_RejectsUntrustedAnswers(t *testing.T) {
	bodies := []string{
		`{"colorName":"Rojo","hexCode":"red"}`,
		`{"colorName":"Rojo","hexCode":"#ZZZZZZ"}`,
		`{"colorName":"Rojo","hexCode":"#FFF"}`,
		`{"colorName":"","hexCode":"#FF0000"}`,
		`{"hexCode":"#FF0000"}`,
		`{"colorName":"Rojo"}`,
		`not json`,
		``,
	}
	for _, body := range bodies {
		server := serve(t, http.StatusOK, body)
		_, err := New(server.URL).Detect(context.Background(), testPayload, time.Second)
		require.ErrorIs(t, err, entity.ErrInvalidResponse, body)
	}
}

func TestDetect_ServerMessageIsForwarded(t *testing.T) {
	server := serve(t, http.StatusInternalServerError, `{"message":"modelo no disponible"}`)

	_, err := New(server.URL).Detect(context.Background(), testPayload, time.Second)
	require.ErrorIs(t, err, entity.ErrServer)

	de := entity.AsDetectionError(err)
	require.Equal(t, "modelo no disponible", de.Message)
	require.Equal(t, http.StatusInternalServerError, de.Status)
}

func TestDetect_ServerErrorWithoutJSON(t *testing.T) {
	server := serve(t, http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := New(server.URL).Detect(context.Background(), testPayload, time.Second)
	de := entity.AsDetectionError(err)
	require.Equal(t, entity.KindServer, de.Kind)
	require.Equal(t, http.StatusBadGateway, de.Status)
	require.Equal(t, "Error del servidor: 502 Bad Gateway", de.Message)
}

func TestDetect_ServerErrorWithoutMessage(t *testing.T) {
	server := serve(t, http.StatusBadRequest, `{}`)

	_, err := New(server.URL).Detect(context.Background(), testPayload, time.Second)
	de := entity.AsDetectionError(err)
	require.Equal(t, entity.KindServer, de.Kind)
	require.Equal(t, msgServerFallback, de.Message)
}

func TestDetect_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	_, err := New(server.URL).Detect(context.Background(), testPayload, 50*time.Millisecond)
	require.ErrorIs(t, err, entity.ErrTimeout)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestDetect_ExternalCancellation(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Без дочитанного тела сервер не замечает разрыв соединения
		_, _ = io.Copy(io.Discard, r.Body)
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for hits.Load() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	_, err := New(server.URL).Detect(ctx, testPayload, 10*time.Second)
	require.ErrorIs(t, err, entity.ErrTimeout)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDetect_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url).Detect(context.Background(), testPayload, time.Second)
	require.ErrorIs(t, err, entity.ErrNetwork)
	require.False(t, entity.KindOf(err) == entity.KindTimeout)
}

func TestNew_DefaultEndpoint(t *testing.T) {
	require.Equal(t, DefaultEndpoint, New("").Endpoint())
}
