package controllers

import (
	"errors"
	"log"
	"net/http"

	"coffee-shop/apperrors"
	"coffee-shop/middlewares"
	"coffee-shop/validation"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error": message}, adding "fields" for
// validation failures. Internal details are logged, never returned.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindInternal {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	status := apperrors.HTTPStatus(appErr.Kind)
	if appErr.Err != nil {
		log.Printf("%s on %s %s: %v", appErr.Kind, c.Request.Method, c.FullPath(), appErr.Err)
	}
	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body into dst and validates it. On failure it
// writes the error response and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperrors.Validation("Invalid request body"))
		return false
	}
	if err := validation.Struct(dst); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}

// resolveUserID picks the user an operation acts on. The token's user is the
// default; another user may only be named by an admin.
func resolveUserID(c *gin.Context, requested string) (string, error) {
	caller := middlewares.CurrentUserID(c)
	if caller == "" {
		return "", apperrors.Unauthorized("User not authenticated")
	}
	if requested == "" || requested == caller {
		return caller, nil
	}
	if middlewares.IsAdmin(c) {
		return requested, nil
	}
	log.Printf("warn: user %s tried to act on behalf of user %s", caller, requested)
	return "", apperrors.Forbidden("You can only access your own resources")
}
