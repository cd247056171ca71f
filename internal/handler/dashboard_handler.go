package handler

import (
	"net/http"

	"lms_backend/internal/middleware"
	"lms_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DashboardHandler serves aggregate reports and the instructor directory
type DashboardHandler struct {
	service service.ReportService
	log     logrus.FieldLogger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(s service.ReportService, log logrus.FieldLogger) *DashboardHandler {
	return &DashboardHandler{service: s, log: log}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.DashboardSummary(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err, "build dashboard summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *DashboardHandler) Instructors(c *gin.Context) {
	instructors, err := h.service.ListInstructors(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err, "retrieve instructors")
		return
	}
	c.JSON(http.StatusOK, instructors)
}

// RegisterDashboardRoutes registers the summary and the admin-only directory
func (h *DashboardHandler) RegisterDashboardRoutes(rg *gin.RouterGroup, adminMW gin.HandlerFunc) {
	rg.GET("/dashboard/summary/", h.Summary)
	rg.GET("/instructors/", adminMW, h.Instructors)
}
