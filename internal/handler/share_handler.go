package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/errcode"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/response"
	"github.com/murtaza-nasir/speakr-sub001/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
}

func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

type grantRequest struct {
	RecipientID string `json:"recipient_id"`
	CanEdit     bool   `json:"can_edit"`
	CanReshare  bool   `json:"can_reshare"`
}

type modifyShareRequest struct {
	CanEdit    bool `json:"can_edit"`
	CanReshare bool `json:"can_reshare"`
}

func (h *ShareHandler) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.RecipientID == "" {
		response.Error(c, errcode.ErrInvalid, "recipient_id is required")
		return
	}
	share, err := h.shares.Grant(c.Request.Context(), service.GrantInput{
		RecordingID: c.Param("id"),
		ActorID:     getUserID(c),
		RecipientID: req.RecipientID,
		CanEdit:     req.CanEdit,
		CanReshare:  req.CanReshare,
		ActorIP:     c.ClientIP(),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, share)
}

func (h *ShareHandler) List(c *gin.Context) {
	entries, err := h.shares.ListShares(c.Request.Context(), c.Param("id"), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": entries})
}

func (h *ShareHandler) Modify(c *gin.Context) {
	var req modifyShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	share, err := h.shares.Modify(c.Request.Context(), service.ModifyInput{
		RecordingID: c.Param("id"),
		ShareID:     c.Param("share_id"),
		ActorID:     getUserID(c),
		CanEdit:     req.CanEdit,
		CanReshare:  req.CanReshare,
		ActorIP:     c.ClientIP(),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, share)
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	result, err := h.shares.Revoke(c.Request.Context(), c.Param("id"), c.Param("share_id"), getUserID(c), c.ClientIP())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ShareHandler) GetOverlay(c *gin.Context) {
	overlay, err := h.shares.GetOverlay(c.Request.Context(), c.Param("id"), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, overlay)
}

func (h *ShareHandler) SetOverlay(c *gin.Context) {
	var patch service.OverlayPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	overlay, err := h.shares.SetOverlay(c.Request.Context(), c.Param("id"), getUserID(c), patch)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, overlay)
}

func (h *ShareHandler) ListAudit(c *gin.Context) {
	limit := uintQuery(c, "limit", 50)
	offset := uintQuery(c, "offset", 0)
	items, err := h.shares.ListAudit(c.Request.Context(), c.Param("id"), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}
