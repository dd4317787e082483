package app

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// DefaultMaxDimension — предел большей стороны стоп-кадра.
const DefaultMaxDimension = 512

// FrameExtractor делает из живого сигнала стоп-кадр ограниченного размера.
// Состояния не хранит.
type FrameExtractor struct {
	Scaler draw.Scaler
}

// NewFrameExtractor создаёт экстрактор с билинейным масштабированием.
func NewFrameExtractor() *FrameExtractor {
	return &FrameExtractor{Scaler: draw.ApproxBiLinear}
}

// Extract снимает текущий кадр с src и уменьшает его так, чтобы
// большая сторона не превышала maxDimension. Увеличения нет.
func (e *FrameExtractor) Extract(src port.FrameSource, maxDimension int) (entity.CaptureFrame, error) {
	if src == nil {
		return entity.CaptureFrame{}, entity.NewError(entity.KindNoActiveFrame, errors.New("no frame source"))
	}

	frame, err := src.CurrentFrame()
	if err != nil {
		if errors.Is(err, entity.ErrNoActiveFrame) {
			return entity.CaptureFrame{}, err
		}
		return entity.CaptureFrame{}, entity.NewError(entity.KindNoActiveFrame, err)
	}
	if frame == nil || frame.Bounds().Empty() {
		return entity.CaptureFrame{}, entity.NewError(entity.KindNoActiveFrame, errors.New("empty frame"))
	}

	bounds := frame.Bounds()
	width, height := ScaledSize(bounds.Dx(), bounds.Dy(), maxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), frame, bounds.Min, draw.Src)
	} else {
		scaler := e.Scaler
		if scaler == nil {
			scaler = draw.ApproxBiLinear
		}
		scaler.Scale(dst, dst.Bounds(), frame, bounds, draw.Src, nil)
	}

	return entity.CaptureFrame{Width: width, Height: height, Pixels: dst}, nil
}

// ScaledSize считает размер после равномерного уменьшения до maxDimension.
// При maxDimension <= 0 размер не меняется.
func ScaledSize(width, height, maxDimension int) (int, int) {
	longest := max(width, height)
	if maxDimension <= 0 || longest <= maxDimension {
		return width, height
	}

	scale := float64(maxDimension) / float64(longest)
	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))

	return w, h
}
