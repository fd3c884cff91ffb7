package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
)

func requestDBC(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// pathID parses a positive integer path parameter. Anything else is reported
// as a missing resource.
func pathID(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, pkgerrors.ErrNotFound
	}
	return uint(n), nil
}

// bindJSON decodes the body into dst and reports malformed bodies as a
// validation error.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return pkgerrors.Field("non_field_errors", "Invalid request body: "+err.Error())
	}
	return nil
}

// queryBool reads 1/true and 0/false; other values mean "not set".
func queryBool(c *gin.Context, name string) *bool {
	var v bool
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "1", "true":
		v = true
	case "0", "false":
		v = false
	default:
		return nil
	}
	return &v
}

// recipesLimit reads ?recipes_limit; absent or invalid means no limit.
func recipesLimit(c *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query("recipes_limit")))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func fieldError(field, msg string) error {
	return pkgerrors.Field(field, msg)
}
