package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/middleware"
	"github.com/naccer/portal/backend/pkg/response"
)

const msgInvalidBody = "Invalid request body"

// bindJSON decodes the body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, msgInvalidBody)
		return false
	}
	return true
}

// idParam parses a numeric path parameter, answering 400 on failure.
func idParam(c *gin.Context, name, invalidMsg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, invalidMsg)
		return 0, false
	}
	return uint(id), true
}

func principal(c *gin.Context) access.Principal {
	p, _ := middleware.GetPrincipal(c)
	return p
}
