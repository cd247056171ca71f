package handler

import (
	"net/http"

	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CategoryHandler handles category requests
type CategoryHandler struct {
	service service.CatalogService
	log     logrus.FieldLogger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(s service.CatalogService, log logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{service: s, log: log}
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err, "retrieve categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	category, err := h.service.GetCategory(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err, "retrieve category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req model.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req model.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, h.log, err, "update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err, "delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterCategoryRoutes registers /categories, admin only
func (h *CategoryHandler) RegisterCategoryRoutes(rg *gin.RouterGroup, adminMW gin.HandlerFunc) {
	categories := rg.Group("/categories")
	categories.Use(adminMW)
	{
		categories.GET("/", h.List)
		categories.POST("/", h.Create)
		categories.GET("/:id/", h.Get)
		categories.PUT("/:id/", h.Update)
		categories.PATCH("/:id/", h.Update)
		categories.DELETE("/:id/", h.Delete)
	}
}
