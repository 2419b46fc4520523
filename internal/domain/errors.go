package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room already exists")
	ErrHostUnavailable = errors.New("room host not found")
	ErrRequestNotFound = errors.New("join request not found")
	ErrNotHost         = errors.New("only the room host may resolve join requests")
)
