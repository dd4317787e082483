package entity

import (
	"fmt"
	"regexp"
	"strings"
)

// hexCodePattern — допустимый формат hex-кода цвета.
var hexCodePattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ColorResult хранит проверенный ответ сервиса распознавания.
type ColorResult struct {
	ColorName string // человекочитаемое название цвета
	HexCode   string // код вида #RRGGBB
}

// NewColorResult проверяет сырой ответ и собирает из него ColorResult.
// Непрошедший проверку ответ никогда не становится ColorResult.
func NewColorResult(colorName, hexCode string) (ColorResult, error) {
	if strings.TrimSpace(colorName) == "" {
		return ColorResult{}, &DetectionError{Kind: KindInvalidResponse, Message: "empty colorName"}
	}
	if !IsValidHexCode(hexCode) {
		return ColorResult{}, &DetectionError{
			Kind:    KindInvalidResponse,
			Message: fmt.Sprintf("malformed hexCode %q", hexCode),
		}
	}

	return ColorResult{ColorName: colorName, HexCode: hexCode}, nil
}

// IsValidHexCode сообщает, соответствует ли строка формату #RRGGBB.
func IsValidHexCode(hexCode string) bool {
	return hexCodePattern.MatchString(hexCode)
}

// String возвращает результат в виде "Название (#RRGGBB)".
func (c ColorResult) String() string {
	return fmt.Sprintf("%s (%s)", c.ColorName, c.HexCode)
}
