// README: Auth middleware; verifies Firebase ID tokens and exposes the caller's numeric user id and admin flag.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"fitapp/internal/infra"
)

const (
	ctxUserID = "auth.user_id"
	ctxAdmin  = "auth.admin"
	ctxUID    = "auth.uid"
)

// Auth rejects requests without a valid bearer token. The token must carry
// a numeric user_id custom claim; an admin claim of true marks an operator.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		userID, ok := claimInt64(token.Claims["user_id"])
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no user_id claim"})
			return
		}
		admin, _ := token.Claims["admin"].(bool)

		c.Set(ctxUID, token.UID)
		c.Set(ctxUserID, userID)
		c.Set(ctxAdmin, admin)
		c.Next()
	}
}

func CallerUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func CallerIsAdmin(c *gin.Context) bool {
	return c.GetBool(ctxAdmin)
}

// CallerUID is the Firebase uid, used only for logging.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

// Custom claims decode from JSON, so numbers arrive as float64; some issuers
// send the id as a string.
func claimInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
