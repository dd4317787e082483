package port

import (
	"context"

	"colorcam/internal/domain/entity"
)

// ViewerRepository интерфейс хранилища зрителей камеры
type ViewerRepository interface {
	// Join добавляет чат в зрители, повторный вызов возвращает существующего
	Join(ctx context.Context, userID, chatID int64) (*entity.Viewer, error)

	// Leave убирает чат из зрителей
	Leave(ctx context.Context, chatID int64) error

	// List возвращает всех зрителей
	List(ctx context.Context) ([]*entity.Viewer, error)

	// Clear убирает всех зрителей
	Clear(ctx context.Context) error
}
