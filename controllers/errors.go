package controllers

import (
	"errors"
	"net/http"

	"go-drink-stand/database"
	"go-drink-stand/helpers"
	"go-drink-stand/policy"

	"github.com/gin-gonic/gin"
)

const retryPrompt = "please try again"

// respondError maps an error to its HTTP response. Store failures are
// logged and counted; everything else is the caller's to fix.
func (ctl *Controller) respondError(c *gin.Context, err error) {
	var ve *policy.ValidationError
	var se *database.StoreError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field, "kind": "validation"})
	case errors.Is(err, policy.ErrNotApproved):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "sorry, we could not find your name on the approved customer list",
			"kind":  "not_approved",
		})
	case errors.Is(err, helpers.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "kind": "unauthorized"})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "duplicate"})
	case errors.As(err, &se):
		ctl.metrics.StoreError(se.Op)
		ctl.log.Error("store call failed", "op", se.Op, "table", se.Table, "path", c.FullPath(), "error", se.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": se.Error() + ", " + retryPrompt, "kind": "store"})
	default:
		ctl.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error() + ", " + retryPrompt, "kind": "internal"})
	}
}

// bindError reports a malformed request body.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "validation"})
}
