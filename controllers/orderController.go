package controllers

import (
	"net/http"

	"go-drink-stand/policy"

	"github.com/gin-gonic/gin"
)

// GetDrinks lists the order page catalog: available drinks first, the
// flagship drink at the top.
func (ctl *Controller) GetDrinks() gin.HandlerFunc {
	return func(c *gin.Context) {
		drinks, err := ctl.loadCatalog(c.Request.Context())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, drinks)
	}
}

// SuggestUsers backs the name search on the order and status pages.
func (ctl *Controller) SuggestUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		approved, err := ctl.loadApproved(c.Request.Context())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, policy.Suggest(c.Query("prefix"), approved))
	}
}

// CreateOrder places an order for an approved customer. Bad input and
// unknown names are refused before anything is written.
func (ctl *Controller) CreateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in policy.OrderInput
		if err := c.ShouldBindJSON(&in); err != nil {
			bindError(c, err)
			return
		}

		ctx := c.Request.Context()
		catalog, err := ctl.loadCatalog(ctx)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		order, err := policy.NewOrder(in, catalog, ctl.now())
		if err != nil {
			ctl.respondError(c, err)
			return
		}

		approved, err := ctl.loadApproved(ctx)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		order.CustomerName, err = policy.Canonicalize(order.CustomerName, approved)
		if err != nil {
			ctl.respondError(c, err)
			return
		}

		ctx, cancel := ctl.withTimeout(ctx)
		defer cancel()
		if err := ctl.store.InsertOrder(ctx, &order); err != nil {
			ctl.respondError(c, err)
			return
		}
		ctl.metrics.OrderCreated()
		ctl.log.Info("order placed", "order_id", order.ID, "customer", order.CustomerName, "drink_id", order.DrinkID, "size", order.Size)
		c.JSON(http.StatusCreated, order)
	}
}
