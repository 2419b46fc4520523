package domain

import "time"

// ConnectionID is the opaque handle of one live transport connection.
type ConnectionID string

type MediaState struct {
	VideoOn bool `json:"video"`
	AudioOn bool `json:"audio"`
}

// Participant is one connected user's membership record within a room.
// Name is unique inside a room at any instant; a rejoin with the same
// name replaces the previous entry.
type Participant struct {
	Name     string       `json:"name"`
	Conn     ConnectionID `json:"socketId"`
	IsHost   bool         `json:"isHost"`
	JoinedAt time.Time    `json:"joinedAt"`
	MediaState
}
