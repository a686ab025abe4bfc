package routes

import (
	"go-drink-stand/controllers"

	"github.com/gin-gonic/gin"
)

func UserRoutes(incomingRoutes *gin.Engine, ctl *controllers.Controller) {
	incomingRoutes.GET("/users/suggest", ctl.SuggestUsers())
}

func AdminUserRoutes(admin *gin.RouterGroup, ctl *controllers.Controller) {
	admin.GET("/users", ctl.GetUsers())
	admin.POST("/users", ctl.CreateUser())
	admin.DELETE("/users/:user_id", ctl.DeleteUser())
}
