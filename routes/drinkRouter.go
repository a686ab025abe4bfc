package routes

import (
	"go-drink-stand/controllers"

	"github.com/gin-gonic/gin"
)

func DrinkRoutes(incomingRoutes *gin.Engine, ctl *controllers.Controller) {
	incomingRoutes.GET("/drinks", ctl.GetDrinks())
}

func AdminDrinkRoutes(admin *gin.RouterGroup, ctl *controllers.Controller) {
	admin.GET("/drinks", ctl.GetAdminDrinks())
	admin.POST("/drinks", ctl.CreateDrink())
	admin.PATCH("/drinks/:drink_id", ctl.UpdateDrink())
	admin.DELETE("/drinks/:drink_id", ctl.DeleteDrink())
	admin.POST("/drinks/:drink_id/toggle", ctl.ToggleDrink())
}
