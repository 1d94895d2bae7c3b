package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runTaskRouter(secureGroup *echo.Group, taskCtrl *controllers.TaskController) {
	group := secureGroup.Group("/tasks")
	{
		group.GET("", taskCtrl.GetTasks)
		group.POST("", taskCtrl.CreateTask)
		group.GET("/statistics", taskCtrl.GetStatistics)
		group.GET("/:id", taskCtrl.FindTask)
		group.PUT("/:id", taskCtrl.UpdateTask)
		group.DELETE("/:id", taskCtrl.DeleteTask)
	}
}
