package routes

import (
	"rentify/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterReservationRoutes registers all endpoints for the booking flow.
func RegisterReservationRoutes(r *gin.Engine, h *handlers.ReservationHandler) {
	res := r.Group("/api/reservation")
	{
		res.POST("", h.SaveReservation)                        // Step 1: vehicle selected
		res.PUT("/extras", h.UpdateExtras)                     // Step 2: extras chosen
		res.PUT("/conductor", h.UpdateConductor)               // Step 3: driver data (strict)
		res.PATCH("/conductor", h.UpdateConductorIntermediate) // Step 3: partial snapshot
		res.GET("", h.GetReservation)
		res.GET("/timer", h.TimerStatus)
		res.POST("/extend", h.ExtendTimer)
		res.POST("/revalidate", h.Revalidate)
		res.POST("/complete", h.Complete) // Step 4: pay and finish
		res.DELETE("", h.Cancel)
	}
}
