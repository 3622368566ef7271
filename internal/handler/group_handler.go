package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/errcode"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/response"
	"github.com/murtaza-nasir/speakr-sub001/internal/service"
)

type GroupHandler struct {
	groups *service.GroupService
}

func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.Error(c, errcode.ErrInvalid, "name is required")
		return
	}
	group, err := h.groups.Create(c.Request.Context(), getUserID(c), req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, group)
}

func (h *GroupHandler) List(c *gin.Context) {
	items, err := h.groups.ListForUser(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *GroupHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.UserID == "" {
		response.Error(c, errcode.ErrInvalid, "user_id is required")
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}
	member, err := h.groups.AddMember(c.Request.Context(), getUserID(c), c.Param("id"), req.UserID, req.Role)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, member)
}

func (h *GroupHandler) ListMembers(c *gin.Context) {
	items, err := h.groups.ListMembers(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}
