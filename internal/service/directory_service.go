package service

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/collab-service/internal/domain"
	"github.com/cwrk-planet/collab-service/internal/postgres"
)

// maxDirectoryMembers — лимит постоянной записи комнаты. Координатор
// в памяти собственного лимита не имеет; это два независимых предела.
const maxDirectoryMembers = 6

type DirectoryService struct {
	rooms *postgres.DirectoryRepository
}

func NewDirectoryService(rooms *postgres.DirectoryRepository) *DirectoryService {
	return &DirectoryService{rooms: rooms}
}

func (s *DirectoryService) CreateRoom(ctx context.Context, roomID string, creator domain.UserID) (*postgres.DirectoryRoom, error) {
	rm, err := s.rooms.Create(ctx, roomID, creator)
	if err != nil {
		return nil, fmt.Errorf("directory.Create: %w", err)
	}
	return rm, nil
}

func (s *DirectoryService) JoinRoom(ctx context.Context, roomID string, user domain.UserID) (*postgres.DirectoryRoom, error) {
	if err := s.rooms.Join(ctx, roomID, user, maxDirectoryMembers); err != nil {
		return nil, err
	}
	return s.rooms.Get(ctx, roomID)
}

func (s *DirectoryService) LeaveRoom(ctx context.Context, roomID string, user domain.UserID) error {
	return s.rooms.Leave(ctx, roomID, user)
}
