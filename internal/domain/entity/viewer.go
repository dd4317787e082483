package entity

import "time"

// Viewer — чат, который следит за камерой и получает результаты распознавания.
type Viewer struct {
	UserID   int64     // Telegram User ID
	ChatID   int64     // Telegram Chat ID
	JoinedAt time.Time // когда чат подключился к камере
}

// NewViewer создаёт зрителя для чата.
func NewViewer(userID, chatID int64) *Viewer {
	return &Viewer{
		UserID:   userID,
		ChatID:   chatID,
		JoinedAt: time.Now(),
	}
}
