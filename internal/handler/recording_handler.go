package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/errcode"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/response"
	"github.com/murtaza-nasir/speakr-sub001/internal/service"
)

type RecordingHandler struct {
	recordings *service.RecordingService
}

func NewRecordingHandler(recordings *service.RecordingService) *RecordingHandler {
	return &RecordingHandler{recordings: recordings}
}

type createRecordingRequest struct {
	Title        string `json:"title"`
	DurationSecs int64  `json:"duration_secs"`
}

func (h *RecordingHandler) Create(c *gin.Context) {
	var req createRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		response.Error(c, errcode.ErrInvalid, "title is required")
		return
	}
	rec, err := h.recordings.Create(c.Request.Context(), getUserID(c), service.CreateRecordingInput{
		Title:        req.Title,
		DurationSecs: req.DurationSecs,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, rec)
}

func (h *RecordingHandler) Get(c *gin.Context) {
	rec, err := h.recordings.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, rec)
}

func (h *RecordingHandler) List(c *gin.Context) {
	items, err := h.recordings.ListMine(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *RecordingHandler) ListShared(c *gin.Context) {
	items, err := h.recordings.ListSharedWithMe(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}
