package model

// Tag is a collection a recording can be filed into. When GroupID is
// set the tag is group-scoped and its share policy flags drive the
// auto-share trigger; otherwise it is personal.
type Tag struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	GroupID            string `json:"group_id,omitempty"`
	AutoShareOnApply   bool   `json:"auto_share_on_apply"`
	ShareWithGroupLead bool   `json:"share_with_group_lead"`
	Ctime              int64  `json:"ctime"`
}

type RecordingTag struct {
	RecordingID string `json:"recording_id"`
	TagID       string `json:"tag_id"`
	Ctime       int64  `json:"ctime"`
}
