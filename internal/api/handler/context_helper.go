package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lyipi/4bpchoquecoe/internal/api/middleware"
	"github.com/lyipi/4bpchoquecoe/internal/service"
	"github.com/lyipi/4bpchoquecoe/pkg/response"
)

// MustGetActor builds the caller from the identity JWTAuth put on the context.
// When it is missing a 401 is written and ok is false; the caller returns.
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID := c.GetString(middleware.CtxUserID)
	username := c.GetString(middleware.CtxUsername)
	if userID == "" || username == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:   userID,
		Username: username,
		FullName: c.GetString(middleware.CtxFullName),
		Role:     c.GetString(middleware.CtxRole),
	}, true
}
