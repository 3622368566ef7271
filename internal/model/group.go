package model

const (
	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"
)

type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ctime int64  `json:"ctime"`
}

type GroupMember struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Ctime   int64  `json:"ctime"`
}
