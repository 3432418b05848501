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

type HoldHandler struct {
	svc service.HoldService
}

func NewHoldHandler(svc service.HoldService) *HoldHandler {
	return &HoldHandler{svc: svc}
}

func (h *HoldHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/", h.Place)
	rg.DELETE("/:hold_id", h.Cancel)
	rg.GET("/:hold_id/position", h.Position)
	rg.GET("/user/:user_id", h.ByUser)
	rg.GET("/title/:title_id", middleware.RequireStaffRole(), h.ByTitle)
	rg.POST("/process-next", middleware.RequireStaffRole(), h.ProcessNext)
	rg.POST("/:hold_id/pickup", middleware.RequireStaffRole(), h.CompletePickup)
	rg.POST("/process-expired", middleware.RequireStaffRole(), h.ProcessExpired)
}

func (h *HoldHandler) Place(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.PlaceHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	hold, err := h.svc.PlaceHold(ctx, req.TitleID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToHoldResponse(hold))
}

func (h *HoldHandler) Cancel(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	holdID, err := strconv.ParseInt(c.Param("hold_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hold id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	hold, err := h.svc.CancelHold(ctx, holdID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToHoldResponse(hold))
}

func (h *HoldHandler) Position(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	holdID, err := strconv.ParseInt(c.Param("hold_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hold id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	position, err := h.svc.GetHoldPosition(ctx, requestorID, holdID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hold_id": holdID, "position": position})
}

func (h *HoldHandler) ByUser(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	holds, err := h.svc.GetUserHolds(ctx, requestorID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToHoldResponses(holds))
}

func (h *HoldHandler) ByTitle(c *gin.Context) {
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

	holds, err := h.svc.GetHoldsForTitle(ctx, requestorID, titleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToHoldResponses(holds))
}

func (h *HoldHandler) ProcessNext(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.ProcessNextHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	hold, err := h.svc.ProcessNextHold(ctx, req.TitleID, req.CopyID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToHoldResponse(hold))
}

func (h *HoldHandler) CompletePickup(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	holdID, err := strconv.ParseInt(c.Param("hold_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hold id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	hold, err := h.svc.CompleteHoldPickup(ctx, holdID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToHoldResponse(hold))
}

func (h *HoldHandler) ProcessExpired(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	// The sweep walks every expired hold, give it more room than one call.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	expired, err := h.svc.ProcessExpiredHolds(ctx, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToHoldResponses(expired))
}
