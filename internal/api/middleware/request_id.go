package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lyipi/4bpchoquecoe/pkg/response"
)

const requestIDKey = response.RequestIDKey

// requestIDMaxLen longer incoming ids are replaced.
const requestIDMaxLen = 64

// RequestID keeps an incoming X-Request-ID when it is short and made of
// visible ASCII only, otherwise assigns a UUID. The id is echoed in the
// response header, the access log and error envelopes.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}

func validRequestID(rid string) bool {
	if rid == "" || len(rid) > requestIDMaxLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		if rid[i] <= ' ' || rid[i] > '~' {
			return false
		}
	}
	return true
}
