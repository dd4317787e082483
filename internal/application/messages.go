package app

import (
	"errors"

	"colorcam/internal/domain/entity"
)

const (
	msgPermissionDenied    = "No se pudo acceder a la cámara. Asegúrate de haber dado permiso de acceso a la cámara."
	msgDeviceUnavailable   = "No se encontró ninguna cámara disponible."
	msgNoActiveFrame       = "La cámara no está transmitiendo. Actívala de nuevo."
	msgEncodingUnavailable = "No se pudo procesar la imagen capturada."
	msgTimeout             = "La solicitud tardó demasiado. Inténtalo de nuevo."
	msgNetwork             = "No se pudo conectar con el servidor. Revisa tu conexión."
	msgServerFallback      = "Ocurrió un error en el servidor."
	msgInvalidResponse     = "La respuesta del servidor no es válida. Inténtalo de nuevo."
	msgUnknown             = "Ocurrió un error desconocido."
)

// UserMessage возвращает текст для пользователя по виду ошибки.
// Для ServerError сообщение сервера передаётся без изменений.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var de *entity.DetectionError
	if !errors.As(err, &de) {
		de = entity.AsDetectionError(err)
	}

	switch de.Kind {
	case entity.KindPermissionDenied:
		return msgPermissionDenied
	case entity.KindDeviceUnavailable:
		return msgDeviceUnavailable
	case entity.KindNoActiveFrame:
		return msgNoActiveFrame
	case entity.KindEncodingUnavailable:
		return msgEncodingUnavailable
	case entity.KindTimeout:
		return msgTimeout
	case entity.KindNetwork:
		return msgNetwork
	case entity.KindServer:
		if de.Message != "" {
			return de.Message
		}
		return msgServerFallback
	case entity.KindInvalidResponse:
		return msgInvalidResponse
	default:
		return msgUnknown
	}
}
