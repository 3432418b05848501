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

type LoanHandler struct {
	svc service.LoanService
}

func NewLoanHandler(svc service.LoanService) *LoanHandler {
	return &LoanHandler{svc: svc}
}

func (h *LoanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout", h.Checkout)
	rg.POST("/:loan_id/renew", h.Renew)
	rg.POST("/:loan_id/return", h.Return)
	rg.GET("/user/:user_id", h.HistoryByUser)
	rg.GET("/user/:user_id/active", h.ActiveByUser)
	rg.GET("/title/:title_id", middleware.RequireStaffRole(), h.HistoryByTitle)
	rg.GET("/copy/:copy_id", middleware.RequireStaffRole(), h.HistoryByCopy)
	rg.GET("/copy/:copy_id/active", middleware.RequireStaffRole(), h.ActiveByCopy)
}

func (h *LoanHandler) Checkout(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	loan, err := h.svc.Checkout(ctx, req.Barcode, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromModelToLoanResponse(loan))
}

func (h *LoanHandler) Renew(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	loan, err := h.svc.RenewLoan(ctx, loanID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}

func (h *LoanHandler) Return(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	loanID, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid loan id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	loan, err := h.svc.ReturnBook(ctx, loanID, requestorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}

func (h *LoanHandler) HistoryByUser(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	loans, err := h.svc.GetLoanHistoryByUser(ctx, requestorID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponses(loans))
}

func (h *LoanHandler) ActiveByUser(c *gin.Context) {
	requestorID, ok := middleware.RequestorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	loans, err := h.svc.GetCurrentLoansByUser(ctx, requestorID, c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponses(loans))
}

func (h *LoanHandler) HistoryByTitle(c *gin.Context) {
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

	loans, err := h.svc.GetLoanHistoryByTitle(ctx, requestorID, titleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponses(loans))
}

func (h *LoanHandler) HistoryByCopy(c *gin.Context) {
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

	loans, err := h.svc.GetLoanHistoryByCopy(ctx, requestorID, copyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponses(loans))
}

func (h *LoanHandler) ActiveByCopy(c *gin.Context) {
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

	loan, err := h.svc.GetCurrentLoanByCopy(ctx, requestorID, copyID)
	if err != nil {
		respondError(c, err)
		return
	}
	if loan == nil {
		c.JSON(http.StatusOK, gin.H{"loan": nil})
		return
	}
	c.JSON(http.StatusOK, dto.FromModelToLoanResponse(loan))
}
