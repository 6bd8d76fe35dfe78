package api

import (
	"github.com/gin-gonic/gin"

	"github.com/labhubhq/labhub/internal/handlers"
)

func registerGroupRoutes(api *gin.RouterGroup, groupHandler *handlers.GroupHandler) {
	groups := api.Group("/groups")
	{
		groups.GET("", groupHandler.List)
		groups.POST("", groupHandler.Create)
		groups.GET("/:id", groupHandler.Get)
		groups.PATCH("/:id", groupHandler.Update)
		groups.DELETE("/:id", groupHandler.Delete)

		groups.POST("/:id/join", groupHandler.RequestJoin)
		groups.GET("/:id/requests", groupHandler.ListRequests)
		groups.POST("/:id/requests/:requestID", groupHandler.Decide)

		groups.GET("/:id/members", groupHandler.ListMembers)
		groups.DELETE("/:id/members/:userID", groupHandler.RemoveMember)
	}
}
