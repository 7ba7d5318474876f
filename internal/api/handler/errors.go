package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lyipi/4bpchoquecoe/internal/service"
	pkgerrors "github.com/lyipi/4bpchoquecoe/pkg/errors"
	"github.com/lyipi/4bpchoquecoe/pkg/response"
)

// handleCommonError errors every module can return. Store failures are
// reported as temporarily unavailable; the operation may be retried.
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "insufficient privileges")
	case pkgerrors.IsStore(err):
		response.Unavailable(c, 10006, "store unavailable, try again")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
