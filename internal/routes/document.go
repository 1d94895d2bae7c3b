package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runDocumentRouter(secureGroup *echo.Group, documentCtrl *controllers.DocumentController) {
	group := secureGroup.Group("/documents")
	{
		group.GET("/:docType", documentCtrl.GetDocuments)
		group.POST("/:docType", documentCtrl.CreateDocument)
		group.GET("/:docType/:id", documentCtrl.FindDocument)
		group.POST("/inventory/:id/complete", documentCtrl.CompleteInventory)
	}
}
