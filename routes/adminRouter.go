package routes

import (
	"go-drink-stand/controllers"
	"go-drink-stand/helpers"
	"go-drink-stand/middleware"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(incomingRoutes *gin.Engine, ctl *controllers.Controller, auth *helpers.AuthProvider) {
	incomingRoutes.POST("/admin/login", ctl.Login())

	admin := incomingRoutes.Group("/admin", middleware.Authentication(auth))
	admin.POST("/logout", ctl.Logout())
	admin.GET("/orders/queue", ctl.GetQueue())
	admin.GET("/orders", ctl.GetOrders())
	admin.PATCH("/orders/:order_id/status", ctl.UpdateOrderStatus())
	admin.DELETE("/orders", ctl.ClearOrders())
	admin.GET("/ws", ctl.AdminSocket())

	AdminDrinkRoutes(admin, ctl)
	AdminUserRoutes(admin, ctl)
}
