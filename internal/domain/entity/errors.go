package entity

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind классифицирует сбой конвейера захвата и распознавания.
type ErrorKind string

const (
	KindPermissionDenied    ErrorKind = "permission_denied"    // доступ к камере запрещён
	KindDeviceUnavailable   ErrorKind = "device_unavailable"   // камера недоступна
	KindNoActiveFrame       ErrorKind = "no_active_frame"      // нет активного видеопотока
	KindEncodingUnavailable ErrorKind = "encoding_unavailable" // не удалось закодировать кадр
	KindTimeout             ErrorKind = "timeout"              // запрос не уложился в срок
	KindNetwork             ErrorKind = "network_error"        // сетевой сбой
	KindServer              ErrorKind = "server_error"         // сервер вернул ошибку
	KindInvalidResponse     ErrorKind = "invalid_response"     // ответ не прошёл проверку
	KindUnknown             ErrorKind = "unknown"              // неклассифицированный сбой
)

// DetectionError — ошибка с видом из таксономии.
// Для KindServer поле Message содержит текст сервера без изменений.
type DetectionError struct {
	Kind    ErrorKind
	Message string
	Status  int // HTTP-статус, если ошибка пришла от сервера
	Err     error
}

// Error реализует интерфейс error.
func (e *DetectionError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap возвращает исходную ошибку.
func (e *DetectionError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по виду, чтобы работал errors.Is с сентинелами.
func (e *DetectionError) Is(target error) bool {
	var t *DetectionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Сентинелы для errors.Is.
var (
	ErrPermissionDenied    = &DetectionError{Kind: KindPermissionDenied}
	ErrDeviceUnavailable   = &DetectionError{Kind: KindDeviceUnavailable}
	ErrNoActiveFrame       = &DetectionError{Kind: KindNoActiveFrame}
	ErrEncodingUnavailable = &DetectionError{Kind: KindEncodingUnavailable}
	ErrTimeout             = &DetectionError{Kind: KindTimeout}
	ErrNetwork             = &DetectionError{Kind: KindNetwork}
	ErrServer              = &DetectionError{Kind: KindServer}
	ErrInvalidResponse     = &DetectionError{Kind: KindInvalidResponse}
)

// NewError оборачивает err в DetectionError заданного вида.
func NewError(kind ErrorKind, err error) *DetectionError {
	return &DetectionError{Kind: kind, Err: err}
}

// NewServerError создаёт ServerError с сообщением сервера.
func NewServerError(status int, message string) *DetectionError {
	return &DetectionError{Kind: KindServer, Status: status, Message: message}
}

// AsDetectionError приводит произвольную ошибку к DetectionError.
// Отмена контекста считается таймаутом.
func AsDetectionError(err error) *DetectionError {
	if err == nil {
		return nil
	}

	var de *DetectionError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(KindTimeout, err)
	}
	return NewError(KindUnknown, err)
}

// KindOf возвращает вид ошибки; для nil — пустую строку.
func KindOf(err error) ErrorKind {
	if de := AsDetectionError(err); de != nil {
		return de.Kind
	}
	return ""
}
