package controllers

import (
	"net/http"

	"go-drink-stand/middleware"
	"go-drink-stand/models"
	"go-drink-stand/policy"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (ctl *Controller) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		session, token, err := ctl.auth.SignIn(req.Password)
		if err != nil {
			ctl.log.Warn("admin sign-in refused", "remote_addr", c.ClientIP())
			ctl.respondError(c, err)
			return
		}
		ctl.log.Info("admin signed in", "session_id", session.ID)
		c.JSON(http.StatusOK, gin.H{"token": token, "session": session})
	}
}

func (ctl *Controller) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctl.auth.SignOut(c.GetString(middleware.TokenKey)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "signed out"})
	}
}

// GetQueue lists pending and in-progress orders, oldest first.
func (ctl *Controller) GetQueue() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := ctl.loadOrders(queueQuery)(c.Request.Context())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// GetOrders lists every order, newest first.
func (ctl *Controller) GetOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := ctl.loadOrders(historyQuery)(c.Request.Context())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func (ctl *Controller) UpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		target, err := policy.ParseTarget(req.Status)
		if err != nil {
			ctl.respondError(c, err)
			return
		}

		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()

		orderId := c.Param("order_id")
		order, err := ctl.store.GetOrder(ctx, orderId)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		patch, err := policy.Transition(order, target, ctl.now())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		if err := ctl.store.UpdateOrder(ctx, orderId, patch); err != nil {
			ctl.respondError(c, err)
			return
		}

		ctl.metrics.OrderTransitioned(string(target))
		if target == models.StatusComplete && patch.CompletedAt != nil {
			ctl.metrics.OrderCompleted(order.CreatedAt, *patch.CompletedAt)
		}
		ctl.log.Info("order status changed", "order_id", orderId, "from", order.Status, "to", target)
		c.JSON(http.StatusOK, patch.Apply(order))
	}
}

// ClearOrders deletes every order. The caller must pass confirm=true.
func (ctl *Controller) ClearOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("confirm") != "true" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "clearing all orders cannot be undone, repeat with confirm=true",
				"field": "confirm",
				"kind":  "validation",
			})
			return
		}
		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()

		deleted, err := ctl.store.DeleteAllOrders(ctx)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		ctl.metrics.OrdersCleared(deleted)
		ctl.log.Warn("all orders cleared", "deleted", deleted)
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}
