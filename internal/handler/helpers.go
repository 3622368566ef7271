package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/errcode"
	appErr "github.com/murtaza-nasir/speakr-sub001/internal/pkg/errors"
	"github.com/murtaza-nasir/speakr-sub001/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get("user_id")
	userID, _ := value.(string)
	return userID
}

func uintQuery(c *gin.Context, key string, fallback uint) uint {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return fallback
	}
	return uint(parsed)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if ve, ok := appErr.AsValidation(err); ok {
		response.Error(c, errcode.ErrValidationFailed, ve.Error())
		return
	}
	switch {
	case err == appErr.ErrUnauthorized:
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case err == appErr.ErrForbidden:
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case err == appErr.ErrSelfShare:
		response.Error(c, errcode.ErrSelfShare, "cannot share with yourself or the owner")
	case appErr.IsAlreadyShared(err):
		response.Error(c, errcode.ErrAlreadyShared, "already shared")
	case appErr.IsConflict(err):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		requestID, _ := c.Get("request_id")
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.Any("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", getUserID(c)),
			zap.Error(err))
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
