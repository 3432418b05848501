package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"circdesk/internal/http-api/dto"
	"circdesk/internal/http-api/middleware"
	"circdesk/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type FineHandler struct {
	svc service.FineService
}

func NewFineHandler(svc service.FineService) *FineHandler {
	return &FineHandler{svc: svc}
}

func (h *FineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/", middleware.RequireStaffRole(), h.Create)
	rg.POST("/:fine_id/pay", h.Pay)
	rg.POST("/:fine_id/waive", middleware.RequireStaffRole(), h.Waive)
	rg.GET("/user/:user_id", h.ByUser)
	rg.GET("/user/:user_id/outstanding", h.Outstanding)
}

func (h *FineHandler) Create(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	fine, err := h.svc.CreateFine(ctx, req.UserID, req.LoanID, req.AmountCents, req.Reason, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToFineResponse(fine))
}

func (h *FineHandler) Pay(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	fineID, err := strconv.ParseInt(c.Param("fine_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fine id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	fine, err := h.svc.PayFine(ctx, fineID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToFineResponse(fine))
}

func (h *FineHandler) Waive(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	fineID, err := strconv.ParseInt(c.Param("fine_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fine id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	fine, err := h.svc.WaiveFine(ctx, fineID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToFineResponse(fine))
}

func (h *FineHandler) ByUser(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	fines, err := h.svc.GetUserFines(ctx, requestorID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToFineResponses(fines))
}

func (h *FineHandler) Outstanding(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	subjectID := c.Param("user_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	total, err := h.svc.GetTotalOutstandingCents(ctx, requestorID, subjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OutstandingResponse{
		UserID:     subjectID,
		TotalCents: total,
		Total:      dto.FormatCents(total),
	})
}
