package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/errcode"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/response"
	"github.com/murtaza-nasir/speakr-sub001/internal/service"
)

type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type createTagRequest struct {
	Name               string `json:"name"`
	GroupID            string `json:"group_id"`
	AutoShareOnApply   bool   `json:"auto_share_on_apply"`
	ShareWithGroupLead bool   `json:"share_with_group_lead"`
}

type assignTagRequest struct {
	TagID string `json:"tag_id"`
}

func (h *TagHandler) Create(c *gin.Context) {
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.Error(c, errcode.ErrInvalid, "name is required")
		return
	}
	tag, err := h.tags.Create(c.Request.Context(), getUserID(c), service.CreateTagInput{
		Name:               req.Name,
		GroupID:            req.GroupID,
		AutoShareOnApply:   req.AutoShareOnApply,
		ShareWithGroupLead: req.ShareWithGroupLead,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tag)
}

func (h *TagHandler) List(c *gin.Context) {
	items, err := h.tags.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *TagHandler) Assign(c *gin.Context) {
	var req assignTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.TagID == "" {
		response.Error(c, errcode.ErrInvalid, "tag_id is required")
		return
	}
	result, err := h.tags.Assign(c.Request.Context(), getUserID(c), c.Param("id"), req.TagID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *TagHandler) Unassign(c *gin.Context) {
	if err := h.tags.Unassign(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *TagHandler) GetAssignment(c *gin.Context) {
	assignment, err := h.tags.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, assignment)
}
