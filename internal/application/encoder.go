package app

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/jpeg"
	"math"

	"colorcam/internal/domain/entity"
)

// DefaultJPEGQuality — качество сжатия кадра.
const DefaultJPEGQuality = 0.9

// ImageEncoder сериализует стоп-кадр в JPEG и base64.
type ImageEncoder struct{}

// NewImageEncoder создаёт кодировщик.
func NewImageEncoder() *ImageEncoder {
	return &ImageEncoder{}
}

// Encode сжимает кадр с качеством quality (0..1).
// Ошибка всегда вида EncodingUnavailable и касается только текущей попытки.
func (e *ImageEncoder) Encode(frame entity.CaptureFrame, quality float64) (entity.EncodedPayload, error) {
	if frame.Pixels == nil || frame.Pixels.Bounds().Empty() {
		return entity.EncodedPayload{}, entity.NewError(entity.KindEncodingUnavailable, errors.New("no pixel buffer"))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Pixels, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return entity.EncodedPayload{}, entity.NewError(entity.KindEncodingUnavailable, err)
	}

	return entity.EncodedPayload{
		MimeType: entity.MimeTypeJPEG,
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// jpegQuality переводит 0..1 в шкалу image/jpeg 1..100.
func jpegQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	return min(max(q, 1), 100)
}
