package storage

import (
	"context"
	"sort"
	"sync"

	"colorcam/internal/domain/entity"
	"colorcam/internal/domain/port"
)

// MemoryViewerRepository in-memory хранилище зрителей
type MemoryViewerRepository struct {
	mu      sync.RWMutex
	viewers map[int64]*entity.Viewer
}

// NewMemoryViewerRepository создаёт новое in-memory хранилище
func NewMemoryViewerRepository() *MemoryViewerRepository {
	return &MemoryViewerRepository{
		viewers: make(map[int64]*entity.Viewer),
	}
}

// Join добавляет чат в зрители, если его там ещё нет
func (r *MemoryViewerRepository) Join(ctx context.Context, userID, chatID int64) (*entity.Viewer, error) {
	r.mu.RLock()
	viewer, exists := r.viewers[chatID]
	r.mu.RUnlock()

	if exists {
		return viewer, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Чат мог подключиться, пока блокировка была отпущена
	if viewer, exists := r.viewers[chatID]; exists {
		return viewer, nil
	}
	viewer = entity.NewViewer(userID, chatID)
	r.viewers[chatID] = viewer

	return viewer, nil
}

// Leave убирает чат из зрителей
func (r *MemoryViewerRepository) Leave(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	delete(r.viewers, chatID)
	r.mu.Unlock()

	return nil
}

// List возвращает зрителей в порядке подключения
func (r *MemoryViewerRepository) List(ctx context.Context) ([]*entity.Viewer, error) {
	r.mu.RLock()
	out := make([]*entity.Viewer, 0, len(r.viewers))
	for _, v := range r.viewers {
		out = append(out, v)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})

	return out, nil
}

// Clear убирает всех зрителей
func (r *MemoryViewerRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.viewers = make(map[int64]*entity.Viewer)
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.ViewerRepository = (*MemoryViewerRepository)(nil)
