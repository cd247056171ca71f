package handler

import (
	"net/http"

	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EnrollmentHandler handles enrollment requests
type EnrollmentHandler struct {
	service service.EnrollmentService
	log     logrus.FieldLogger
}

// NewEnrollmentHandler creates a new EnrollmentHandler
func NewEnrollmentHandler(s service.EnrollmentService, log logrus.FieldLogger) *EnrollmentHandler {
	return &EnrollmentHandler{service: s, log: log}
}

func (h *EnrollmentHandler) List(c *gin.Context) {
	enrollments, err := h.service.List(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err, "retrieve enrollments")
		return
	}
	c.JSON(http.StatusOK, enrollments)
}

func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	enrollment, err := h.service.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err, "retrieve enrollment")
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req model.EnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.service.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err, "create enrollment")
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err, "delete enrollment")
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterEnrollmentRoutes registers /enrollments
func (h *EnrollmentHandler) RegisterEnrollmentRoutes(rg *gin.RouterGroup) {
	enrollments := rg.Group("/enrollments")
	{
		enrollments.GET("/", h.List)
		enrollments.POST("/", h.Create)
		enrollments.GET("/:id/", h.Get)
		enrollments.DELETE("/:id/", h.Delete)
	}
}
