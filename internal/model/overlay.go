package model

// Overlay is per-user, per-recording personal state. It is created on
// first access and outlives the share edge: revoking and re-granting
// access restores prior notes and highlight, only is_inbox resets.
type Overlay struct {
	RecordingID   string `json:"recording_id"`
	UserID        string `json:"user_id"`
	PersonalNotes string `json:"personal_notes"`
	IsInbox       bool   `json:"is_inbox"`
	IsHighlighted bool   `json:"is_highlighted"`
	LastViewed    int64  `json:"last_viewed"`
	Ctime         int64  `json:"ctime"`
	Mtime         int64  `json:"mtime"`
}
