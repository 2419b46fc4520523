package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/collab-service/internal/postgres"
)

type NotepadService struct {
	notepads *postgres.NotepadRepository
}

func NewNotepadService(notepads *postgres.NotepadRepository) *NotepadService {
	return &NotepadService{notepads: notepads}
}

func (s *NotepadService) Update(ctx context.Context, roomID, content string) error {
	return s.notepads.Upsert(ctx, roomID, content)
}

func (s *NotepadService) Get(ctx context.Context, roomID string) (string, error) {
	return s.notepads.Get(ctx, roomID)
}

// SnapshotDocument — подписчик на изменения documentState координатора.
// Пишет асинхронно: координатор никогда не ждёт базу.
func (s *NotepadService) SnapshotDocument(roomID, code, language string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.notepads.UpsertDocument(ctx, roomID, code, language); err != nil {
			slog.Warn("document snapshot flush failed", "room", roomID, "err", err)
		}
	}()
}
