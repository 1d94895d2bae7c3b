package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runWarehouseRouter(secureGroup *echo.Group, warehouseCtrl *controllers.WarehouseController) {
	group := secureGroup.Group("/warehouses")
	{
		group.GET("", warehouseCtrl.GetWarehouses)
		group.POST("", warehouseCtrl.CreateWarehouse)
		group.GET("/:id", warehouseCtrl.FindWarehouse)
		group.PUT("/:id", warehouseCtrl.UpdateWarehouse)
		group.DELETE("/:id", warehouseCtrl.DeleteWarehouse)
	}
}
