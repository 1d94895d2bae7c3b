package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runCategoryRouter(secureGroup *echo.Group, categoryCtrl *controllers.CategoryController) {
	group := secureGroup.Group("/categories")
	{
		group.GET("/tree", categoryCtrl.GetTree)
		group.POST("", categoryCtrl.CreateCategory)
		group.POST("/migrate-equipment", categoryCtrl.MigrateEquipment)
		group.GET("/:id", categoryCtrl.FindCategory)
		group.PUT("/:id", categoryCtrl.UpdateCategory)
		group.DELETE("/:id", categoryCtrl.DeleteCategory)
	}
}
