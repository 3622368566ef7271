package model

const (
	ShareSourceManual       = "manual"
	ShareSourceGroupTrigger = "group_trigger"
)

// Share is one delegation edge: grantor gave recipient access to a
// recording with the listed permission flags. At most one edge exists
// per (recording, recipient), enforced by a unique index.
type Share struct {
	ID          string `json:"id"`
	RecordingID string `json:"recording_id"`
	GrantorID   string `json:"grantor_id"`
	RecipientID string `json:"recipient_id"`
	CanEdit     bool   `json:"can_edit"`
	CanReshare  bool   `json:"can_reshare"`
	SourceType  string `json:"source_type"`
	SourceTagID string `json:"source_tag_id,omitempty"`
	Ctime       int64  `json:"ctime"`
}

// Perms is a permission flag pair, used both for requested grants and
// for what an actor may grant at most.
type Perms struct {
	CanEdit    bool `json:"can_edit"`
	CanReshare bool `json:"can_reshare"`
}
