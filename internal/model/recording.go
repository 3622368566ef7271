package model

const (
	RecordingStateActive  = 1
	RecordingStateDeleted = 2
)

type Recording struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	Title        string `json:"title"`
	DurationSecs int64  `json:"duration_secs"`
	State        int    `json:"state"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
