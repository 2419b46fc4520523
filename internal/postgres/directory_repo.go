package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/collab-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDirectoryRoomNotFound = errors.New("directory room not found")
	ErrDirectoryRoomFull     = errors.New("directory room is full")
)

type DirectoryRoom struct {
	RoomID    string          `db:"room_id"`
	CreatorID domain.UserID   `db:"creator_id"`
	CreatedAt time.Time       `db:"created_at"`
	Members   []domain.UserID `db:"-"`
}

// DirectoryRepository is the durable room directory. Its participant cap
// is independent from the in-memory coordinator, which has none.
type DirectoryRepository struct {
	db *pgxpool.Pool
}

func NewDirectoryRepository(db *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) Create(ctx context.Context, roomID string, creator domain.UserID) (*DirectoryRoom, error) {
	rm := &DirectoryRoom{RoomID: roomID, CreatorID: creator}
	err := r.db.QueryRow(ctx, `
		INSERT INTO directory_rooms (room_id, creator_id)
		VALUES ($1, $2)
		RETURNING created_at`,
		roomID, int64(creator),
	).Scan(&rm.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO directory_members (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		roomID, int64(creator)); err != nil {
		return nil, err
	}
	rm.Members = []domain.UserID{creator}

	return rm, nil
}

// Join — защищён от гонок по лимиту участников: строка комнаты
// блокируется на время проверки.
func (r *DirectoryRepository) Join(ctx context.Context, roomID string, user domain.UserID, maxMembers int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var one int
	if err := tx.QueryRow(ctx,
		`SELECT 1 FROM directory_rooms WHERE room_id=$1 FOR UPDATE`, roomID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDirectoryRoomNotFound
		}
		return err
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM directory_members WHERE room_id=$1 AND user_id=$2)`,
		roomID, int64(user)).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return tx.Commit(ctx)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM directory_members WHERE room_id=$1`, roomID).Scan(&count); err != nil {
		return err
	}
	if count >= maxMembers {
		return ErrDirectoryRoomFull
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO directory_members (room_id, user_id)
		VALUES ($1, $2)`,
		roomID, int64(user)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Leave выходит из комнаты. Пользователь, который и не был участником,
// не получает ошибку: итоговое состояние то же самое.
func (r *DirectoryRepository) Leave(ctx context.Context, roomID string, user domain.UserID) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM directory_rooms WHERE room_id=$1)`, roomID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrDirectoryRoomNotFound
	}

	_, err := r.db.Exec(ctx,
		`DELETE FROM directory_members WHERE room_id=$1 AND user_id=$2`,
		roomID, int64(user))
	return err
}

func (r *DirectoryRepository) Get(ctx context.Context, roomID string) (*DirectoryRoom, error) {
	var rm DirectoryRoom
	err := r.db.QueryRow(ctx, `
		SELECT room_id, creator_id, created_at
		FROM directory_rooms WHERE room_id=$1`,
		roomID,
	).Scan(&rm.RoomID, &rm.CreatorID, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDirectoryRoomNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT user_id FROM directory_members
		WHERE room_id=$1 ORDER BY joined_at ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		rm.Members = append(rm.Members, domain.UserID(id))
	}

	return &rm, rows.Err()
}
