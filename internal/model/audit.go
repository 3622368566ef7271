package model

const (
	AuditActionCreated        = "created"
	AuditActionModified       = "modified"
	AuditActionRevoked        = "revoked"
	AuditActionCascadeRevoked = "cascade_revoked"
)

// AuditEntry is an append-only record of a ledger mutation. It carries
// both the permissions that were granted/removed and a snapshot of the
// actor's own permissions at that moment. Rows are never updated or
// deleted.
type AuditEntry struct {
	ID              string `json:"id"`
	Action          string `json:"action"`
	RecordingID     string `json:"recording_id"`
	ActorID         string `json:"actor_id"`
	TargetUserID    string `json:"target_user_id,omitempty"`
	CanEdit         bool   `json:"can_edit"`
	CanReshare      bool   `json:"can_reshare"`
	ActorCanEdit    bool   `json:"actor_can_edit"`
	ActorCanReshare bool   `json:"actor_can_reshare"`
	ShareID         string `json:"share_id,omitempty"`
	Notes           string `json:"notes"`
	ActorIP         string `json:"actor_ip,omitempty"`
	Ctime           int64  `json:"ctime"`
}
