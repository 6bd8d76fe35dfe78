package api

import (
	"github.com/gin-gonic/gin"

	"github.com/labhubhq/labhub/internal/handlers"
)

func registerProjectRoutes(api *gin.RouterGroup, projectHandler *handlers.ProjectHandler) {
	api.POST("/groups/:id/projects", projectHandler.Create)
	api.GET("/groups/:id/projects", projectHandler.ListByGroup)

	projects := api.Group("/projects")
	{
		projects.GET("/:id", projectHandler.Get)
		projects.PATCH("/:id", projectHandler.Update)
		projects.DELETE("/:id", projectHandler.Delete)

		projects.POST("/:id/assignees", projectHandler.Assign)
		projects.DELETE("/:id/assignees/:userID", projectHandler.Unassign)

		projects.POST("/:id/items", projectHandler.AddItem)
		projects.PATCH("/:id/items/:itemID", projectHandler.UpdateItem)
		projects.DELETE("/:id/items/:itemID", projectHandler.RemoveItem)
	}
}
