package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runEquipmentRouter(
	secureGroup *echo.Group,
	equipmentCtrl *controllers.EquipmentController,
	testingCtrl *controllers.TestingController,
	reportCtrl *controllers.ReportController,
) {
	group := secureGroup.Group("/equipment")
	{
		group.GET("", equipmentCtrl.GetEquipments)
		group.POST("", equipmentCtrl.CreateEquipment)
		group.GET("/statistics", equipmentCtrl.GetStatistics)
		group.GET("/in-transit/count", equipmentCtrl.InTransitCount)
		group.GET("/testing-requests", testingCtrl.ListTestingRequests)
		group.GET("/export", reportCtrl.ExportEquipment)
		group.GET("/cost-report", reportCtrl.CostReport)

		group.POST("/scan", equipmentCtrl.ScanEquipment)
		group.POST("/ocr", equipmentCtrl.ParseOCR)
		group.POST("/approve-receipt", equipmentCtrl.ApproveReceipt)
		group.POST("/quantity/move", equipmentCtrl.QuantityMove)
		group.POST("/bulk/move", equipmentCtrl.BulkMove)
		group.POST("/batch/move", equipmentCtrl.BatchMove)

		group.GET("/:id", equipmentCtrl.FindEquipment)
		group.PUT("/:id", equipmentCtrl.UpdateEquipment)
		group.DELETE("/:id", equipmentCtrl.DeleteEquipment)
		group.GET("/:id/card", reportCtrl.EquipmentCard)
		group.GET("/:id/reservation-history", equipmentCtrl.ReservationHistory)
		group.POST("/:id/move", equipmentCtrl.MoveEquipment)
		group.POST("/:id/ship", equipmentCtrl.ShipEquipment)
		group.POST("/:id/write-off", equipmentCtrl.WriteOffEquipment)
		group.PATCH("/:id/status", equipmentCtrl.UpdateStatus)
		group.POST("/:id/upload-photo", equipmentCtrl.UploadPhoto)

		group.POST("/:id/request-testing", testingCtrl.RequestTesting)
		group.POST("/:id/cancel-testing", testingCtrl.CancelTesting)
		group.POST("/:id/take-testing", testingCtrl.TakeInWork)
		group.POST("/:id/complete-testing", testingCtrl.CompleteTesting)
		group.POST("/:id/testing-files", testingCtrl.UploadFile)
	}
}
