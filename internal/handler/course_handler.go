package handler

import (
	"net/http"

	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CourseHandler handles course requests
type CourseHandler struct {
	service service.CatalogService
	log     logrus.FieldLogger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(s service.CatalogService, log logrus.FieldLogger) *CourseHandler {
	return &CourseHandler{service: s, log: log}
}

func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err, "retrieve courses")
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	course, err := h.service.GetCourse(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err, "retrieve course")
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) Create(c *gin.Context) {
	var req model.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.CreateCourse(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err, "create course")
		return
	}
	c.JSON(http.StatusCreated, course)
}

// Update serves both PUT and PATCH; absent fields are left unchanged.
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.service.UpdateCourse(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, h.log, err, "update course")
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCourse(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err, "delete course")
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterCourseRoutes registers /courses. Writes need an instructor or admin;
// the service narrows instructors to the courses they own.
func (h *CourseHandler) RegisterCourseRoutes(rg *gin.RouterGroup, writeMW gin.HandlerFunc) {
	courses := rg.Group("/courses")
	courses.Use(writeMW)
	{
		courses.GET("/", h.List)
		courses.POST("/", h.Create)
		courses.GET("/:id/", h.Get)
		courses.PUT("/:id/", h.Update)
		courses.PATCH("/:id/", h.Update)
		courses.DELETE("/:id/", h.Delete)
	}
}
