// Package routes wires the controllers onto a gin engine.
package routes

import (
	"net/http"

	"go-drink-stand/controllers"
	"go-drink-stand/helpers"
	"go-drink-stand/monitoring"

	"github.com/gin-gonic/gin"
)

// Register mounts every route the server exposes.
func Register(router *gin.Engine, ctl *controllers.Controller, auth *helpers.AuthProvider, metrics *monitoring.Metrics) {
	DrinkRoutes(router, ctl)
	UserRoutes(router, ctl)
	OrderRoutes(router, ctl)
	AdminRoutes(router, ctl, auth)
	OpsRoutes(router, metrics)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page not found"})
	})
}

func OpsRoutes(incomingRoutes *gin.Engine, metrics *monitoring.Metrics) {
	incomingRoutes.GET("/metrics", gin.WrapH(metrics.Handler()))
	incomingRoutes.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
