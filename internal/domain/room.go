package domain

import "time"

// Room metadata as seen by callers of the store. The participant set
// itself is owned by the store and only handed out as snapshots.
type Room struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Creator         string    `json:"creator"`
	CreatedAt       time.Time `json:"createdAt"`
	RequireApproval bool      `json:"requireApproval"`
}

// DocumentState is the last-writer-wins cache of the room's code buffer.
// It is not authoritative storage; snapshots may be flushed elsewhere.
type DocumentState struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}
