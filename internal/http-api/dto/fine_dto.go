package dto

import (
	"fmt"
	"time"

	"circdesk/internal/http-api/models"
)

type CreateFineRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	LoanID      int64  `json:"loan_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
}

type FineResponse struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	LoanID      int64     `json:"loan_id"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	FineDate    time.Time `json:"fine_date"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
}

type OutstandingResponse struct {
	UserID     string `json:"user_id"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

// FormatCents renders integer cents as a dollar string, e.g. 500 -> "5.00".
func FormatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func FromModelToFineResponse(fine *models.Fine) FineResponse {
	return FineResponse{
		ID:          fine.ID,
		UserID:      fine.UserID,
		LoanID:      fine.LoanID,
		AmountCents: fine.AmountCents,
		Amount:      FormatCents(fine.AmountCents),
		FineDate:    fine.FineDate,
		Reason:      fine.Reason,
		Status:      string(fine.Status),
	}
}

func FromModelToFineResponses(fines []models.Fine) []FineResponse {
	out := make([]FineResponse, 0, len(fines))
	for i := range fines {
		out = append(out, FromModelToFineResponse(&fines[i]))
	}
	return out
}
