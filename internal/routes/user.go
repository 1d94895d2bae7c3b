package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController) {
	group := secureGroup.Group("/users")
	{
		group.GET("", userCtrl.GetUsers)
		group.POST("", userCtrl.CreateUser)
		group.GET("/:id", userCtrl.FindUser)
		group.PUT("/:id", userCtrl.UpdateUser)
		group.DELETE("/:id", userCtrl.DeleteUser)
	}
}
