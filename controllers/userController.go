package controllers

import (
	"net/http"

	"go-drink-stand/policy"

	"github.com/gin-gonic/gin"
)

type userRequest struct {
	Name string `json:"name"`
}

// GetUsers lists approved customers by name, narrowed by ?search= when
// given.
func (ctl *Controller) GetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := ctl.loadUsers(c.Request.Context())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, policy.SearchUsers(users, c.Query("search")))
	}
}

func (ctl *Controller) CreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req userRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		approved, err := ctl.loadApproved(c.Request.Context())
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		user, err := policy.NewUser(req.Name, approved, ctl.now())
		if err != nil {
			ctl.respondError(c, err)
			return
		}

		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()
		if err := ctl.store.InsertUser(ctx, &user); err != nil {
			ctl.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func (ctl *Controller) DeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := ctl.withTimeout(c.Request.Context())
		defer cancel()

		if err := ctl.store.DeleteUser(ctx, c.Param("user_id")); err != nil {
			ctl.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
