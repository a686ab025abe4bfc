package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetCustomerOrders lists one customer's orders, newest first. An approved
// name in any casing finds the orders stored under its approved spelling.
func (ctl *Controller) GetCustomerOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("name"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "please enter your name", "field": "name", "kind": "validation"})
			return
		}
		ctx := c.Request.Context()
		customer, err := ctl.resolveCustomer(ctx, name)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		rows, err := ctl.loadOrders(customerQuery(customer))(ctx)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer_name": customer, "orders": rows})
	}
}
