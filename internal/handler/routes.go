package handler

import (
	"lms_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler of the API
type Handlers struct {
	Auth        *AuthHandler
	Categories  *CategoryHandler
	Courses     *CourseHandler
	Enrollments *EnrollmentHandler
	Dashboard   *DashboardHandler
}

// RegisterRoutes mounts /accounts, /protected and /core on router
func RegisterRoutes(router *gin.Engine, h Handlers, authMW gin.HandlerFunc) {
	adminMW := middleware.AdminMiddleware()

	h.Auth.RegisterAuthRoutes(&router.RouterGroup, authMW)

	core := router.Group("/core")
	core.Use(authMW) // everything under /core requires authentication
	h.Categories.RegisterCategoryRoutes(core, adminMW)
	h.Courses.RegisterCourseRoutes(core, middleware.InstructorOrReadOnlyMiddleware())
	h.Enrollments.RegisterEnrollmentRoutes(core)
	h.Dashboard.RegisterDashboardRoutes(core, adminMW)
}
