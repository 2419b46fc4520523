package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotepadNotFound = errors.New("notepad not found")

type NotepadRepository struct {
	db *pgxpool.Pool
}

func NewNotepadRepository(db *pgxpool.Pool) *NotepadRepository {
	return &NotepadRepository{db: db}
}

// Upsert перезаписывает содержимое блокнота комнаты целиком.
func (r *NotepadRepository) Upsert(ctx context.Context, roomID, content string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notepads (room_id, content)
		VALUES ($1, $2)
		ON CONFLICT (room_id) DO UPDATE SET content = EXCLUDED.content`,
		roomID, content)
	return err
}

func (r *NotepadRepository) Get(ctx context.Context, roomID string) (string, error) {
	var content string
	err := r.db.QueryRow(ctx,
		`SELECT content FROM notepads WHERE room_id=$1`, roomID).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotepadNotFound
		}
		return "", err
	}
	return content, nil
}

// UpsertDocument хранит последний снапшот кода комнаты (LWW); координатор
// не зависит от успеха этой записи.
func (r *NotepadRepository) UpsertDocument(ctx context.Context, roomID, code, language string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO room_documents (room_id, code, language, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (room_id) DO UPDATE
		SET code = EXCLUDED.code, language = EXCLUDED.language, updated_at = now()`,
		roomID, code, language)
	return err
}
