package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runReportRouter(secureGroup *echo.Group, reportCtrl *controllers.ReportController) {
	group := secureGroup.Group("/reports")
	{
		group.GET("/financial", reportCtrl.FinancialReport)
	}
}
