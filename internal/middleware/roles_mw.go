package middleware

import (
	"net/http"

	"lms_backend/internal/policy"

	"github.com/gin-gonic/gin"
)

// RequirePolicy rejects requests whose principal fails check. It must run
// after JWTAuthMiddleware.
func RequirePolicy(check policy.Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !check(GetPrincipal(c), c.Request.Method) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action."})
			return
		}
		c.Next()
	}
}

// AdminMiddleware checks if the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return RequirePolicy(policy.Always(policy.IsAdmin))
}

// InstructorOrReadOnlyMiddleware lets anyone authenticated read and
// instructors or admins write.
func InstructorOrReadOnlyMiddleware() gin.HandlerFunc {
	return RequirePolicy(policy.IsInstructorOrReadOnly)
}
