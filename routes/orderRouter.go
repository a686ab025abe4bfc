package routes

import (
	"go-drink-stand/controllers"

	"github.com/gin-gonic/gin"
)

func OrderRoutes(incomingRoutes *gin.Engine, ctl *controllers.Controller) {
	incomingRoutes.POST("/orders", ctl.CreateOrder())
	incomingRoutes.GET("/orders/status", ctl.GetCustomerOrders())
	incomingRoutes.GET("/ws/order", ctl.OrderSocket())
	incomingRoutes.GET("/ws/status", ctl.StatusSocket())
}
