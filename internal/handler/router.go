package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/murtaza-nasir/speakr-sub001/internal/middleware"
)

type RouterDeps struct {
	Auth       *AuthHandler
	Recordings *RecordingHandler
	Shares     *ShareHandler
	Tags       *TagHandler
	Groups     *GroupHandler
	JWTSecret  []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/recordings", deps.Recordings.Create)
	authGroup.GET("/recordings", deps.Recordings.List)
	authGroup.GET("/recordings/shared", deps.Recordings.ListShared)
	authGroup.GET("/recordings/:id", deps.Recordings.Get)

	authGroup.POST("/recordings/:id/shares", deps.Shares.Grant)
	authGroup.GET("/recordings/:id/shares", deps.Shares.List)
	authGroup.PATCH("/recordings/:id/shares/:share_id", deps.Shares.Modify)
	authGroup.DELETE("/recordings/:id/shares/:share_id", deps.Shares.Revoke)

	authGroup.GET("/recordings/:id/overlay", deps.Shares.GetOverlay)
	authGroup.PATCH("/recordings/:id/overlay", deps.Shares.SetOverlay)
	authGroup.GET("/recordings/:id/audit", deps.Shares.ListAudit)

	authGroup.PUT("/recordings/:id/tag", deps.Tags.Assign)
	authGroup.GET("/recordings/:id/tag", deps.Tags.GetAssignment)
	authGroup.DELETE("/recordings/:id/tag", deps.Tags.Unassign)

	authGroup.POST("/tags", deps.Tags.Create)
	authGroup.GET("/tags", deps.Tags.List)

	authGroup.POST("/groups", deps.Groups.Create)
	authGroup.GET("/groups", deps.Groups.List)
	authGroup.POST("/groups/:id/members", deps.Groups.AddMember)
	authGroup.GET("/groups/:id/members", deps.Groups.ListMembers)
}
