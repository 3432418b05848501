package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"circdesk/internal/http-api/dto"
	"circdesk/internal/http-api/middleware"
	"circdesk/internal/http-api/models"
	"circdesk/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/titles", h.ListTitles)
	rg.GET("/titles/:title_id", h.GetTitle)
	rg.GET("/titles/:title_id/availability", h.Availability)
	rg.POST("/titles", middleware.RequireStaffRole(), h.CreateTitle)
	rg.PUT("/titles/:title_id", middleware.RequireStaffRole(), h.UpdateTitle)
	rg.DELETE("/titles/:title_id", middleware.RequireStaffRole(), h.DeleteTitle)
	rg.POST("/copies", middleware.RequireStaffRole(), h.AddCopy)
	rg.PUT("/copies/:copy_id/status", middleware.RequireStaffRole(), h.SetCopyStatus)
	rg.DELETE("/copies/:copy_id", middleware.RequireStaffRole(), h.RemoveCopy)
}

func (h *CatalogHandler) ListTitles(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	titles, err := h.svc.ListTitles(ctx, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToTitleResponses(titles))
}

func (h *CatalogHandler) GetTitle(c *gin.Context) {
	titleID, err := strconv.ParseInt(c.Param("title_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	title, err := h.svc.GetTitle(ctx, titleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToTitleResponse(title))
}

func (h *CatalogHandler) Availability(c *gin.Context) {
	titleID, err := strconv.ParseInt(c.Param("title_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.svc.GetAvailability(ctx, titleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *CatalogHandler) CreateTitle(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	title := &models.Title{
		ISBN:      req.ISBN,
		Name:      req.Name,
		Author:    req.Author,
		PubYear:   req.PubYear,
		Genre:     req.Genre,
		IsVisible: true,
	}
	created, err := h.svc.CreateTitle(ctx, title, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToTitleResponse(created))
}

func (h *CatalogHandler) UpdateTitle(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	titleID, err := strconv.ParseInt(c.Param("title_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	var req dto.UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// The merge base must come from the staff read: the public one hides
	// invisible titles, which staff still need to edit.
	title, err := h.svc.GetTitleForStaff(ctx, requestorID, titleID)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Name != "" {
		title.Name = req.Name
	}
	if req.Author != "" {
		title.Author = req.Author
	}
	if req.PubYear != 0 {
		title.PubYear = req.PubYear
	}
	if req.Genre != "" {
		title.Genre = req.Genre
	}
	if req.IsVisible != nil {
		title.IsVisible = *req.IsVisible
	}

	updated, err := h.svc.UpdateTitle(ctx, title, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToTitleResponse(updated))
}

func (h *CatalogHandler) DeleteTitle(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	titleID, err := strconv.ParseInt(c.Param("title_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid title id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.DeleteTitle(ctx, titleID, requestorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "title deleted"})
}

func (h *CatalogHandler) AddCopy(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.AddCopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	copy := &models.Copy{
		TitleID:   req.TitleID,
		Barcode:   req.Barcode,
		Location:  req.Location,
		Status:    models.CopyAvailable,
		IsVisible: true,
	}
	created, err := h.svc.AddCopy(ctx, copy, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToCopyResponse(created))
}

func (h *CatalogHandler) SetCopyStatus(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	copyID, err := strconv.ParseInt(c.Param("copy_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid copy id"})
		return
	}

	var req dto.SetCopyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	copy, err := h.svc.SetCopyStatus(ctx, copyID, models.CopyStatus(req.Status), requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToCopyResponse(copy))
}

func (h *CatalogHandler) RemoveCopy(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	copyID, err := strconv.ParseInt(c.Param("copy_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid copy id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.RemoveCopy(ctx, copyID, requestorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "copy removed"})
}
