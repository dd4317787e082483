package entity

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
)

// MimeTypeJPEG — тип содержимого закодированного кадра.
const MimeTypeJPEG = "image/jpeg"

// FacingMode — предпочтение по камере устройства.
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment" // основная (тыльная) камера
	FacingUser        FacingMode = "user"        // фронтальная камера
)

// MediaConstraints описывает запрос видеопотока.
type MediaConstraints struct {
	Facing FacingMode
}

// CaptureFrame — нормализованный стоп-кадр.
type CaptureFrame struct {
	Width  int
	Height int
	Pixels *image.RGBA
}

// EncodedPayload — готовый к передаче кадр: base64 без data-URI префикса.
type EncodedPayload struct {
	MimeType string
	Data     string
}

// Size возвращает длину полезной нагрузки в байтах до base64.
func (p EncodedPayload) Size() int {
	return base64.StdEncoding.DecodedLen(len(p.Data))
}

// Decode раскодирует полезную нагрузку обратно в изображение.
func (p EncodedPayload) Decode() (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, err
	}
	return jpeg.Decode(bytes.NewReader(raw))
}
