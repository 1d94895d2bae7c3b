package routes

import (
	"github.com/labstack/echo/v4"

	"operations-system/internal/controllers"
)

func runReservationRouter(secureGroup *echo.Group, reservationCtrl *controllers.ReservationController) {
	group := secureGroup.Group("/reservations")
	{
		group.GET("", reservationCtrl.GetReservations)
		group.POST("", reservationCtrl.CreateReservation)
		group.GET("/:id", reservationCtrl.FindReservation)
		group.POST("/:id/cancel", reservationCtrl.CancelReservation)
	}
}
