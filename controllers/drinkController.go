package controllers

import (
	"net/http"

	"go-drink-stand/policy"

	"github.com/gin-gonic/gin"
)

// GetAdminDrinks lists the whole catalog for staff, available drinks first
// and each group in priority order.
func (ctl *Controller) GetAdminDrinks() gin.HandlerFunc {
	return func(c *gin.Context) {
		drinks, err := ctl.loadAdminDrinks(c.Request.Context())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, drinks)
	}
}

func (ctl *Controller) CreateDrink() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in policy.DrinkInput
		if err := c.ShouldBindJSON(&in); err != nil {
			bindError(c, err)
			return
		}
		drink, err := policy.NewDrink(in, ctl.now())
		if err != nil {
			ctl.respondError(c, err)
			return
		}

		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()
		if err := ctl.store.InsertDrink(ctx, &drink); err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, drink)
	}
}

func (ctl *Controller) UpdateDrink() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in policy.DrinkEdit
		if err := c.ShouldBindJSON(&in); err != nil {
			bindError(c, err)
			return
		}
		patch, err := policy.EditDrink(in)
		if err != nil {
			ctl.respondError(c, err)
			return
		}

		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()

		drinkId := c.Param("drink_id")
		if err := ctl.store.UpdateDrink(ctx, drinkId, patch); err != nil {
			ctl.respondError(c, err)
			return
		}
		drink, err := ctl.store.GetDrink(ctx, drinkId)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, drink)
	}
}

func (ctl *Controller) ToggleDrink() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()

		drinkId := c.Param("drink_id")
		drink, err := ctl.store.GetDrink(ctx, drinkId)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		patch := policy.ToggleAvailability(drink)
		if err := ctl.store.UpdateDrink(ctx, drinkId, patch); err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, patch.Apply(drink))
	}
}

// DeleteDrink removes a drink. Its orders stay and show as a deleted drink.
func (ctl *Controller) DeleteDrink() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()

		if err := ctl.store.DeleteDrink(ctx, c.Param("drink_id")); err != nil {
			ctl.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
