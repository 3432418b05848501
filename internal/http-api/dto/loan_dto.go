package dto

import (
	"time"

	"circdesk/internal/http-api/models"
)

type CheckoutRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

type LoanResponse struct {
	ID           int64      `json:"id"`
	CopyID       int64      `json:"copy_id"`
	UserID       string     `json:"user_id"`
	CheckoutDate time.Time  `json:"checkout_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	RenewCount   int        `json:"renew_count"`
}

func FromModelToLoanResponse(loan *models.Loan) LoanResponse {
	return LoanResponse{
		ID:           loan.ID,
		CopyID:       loan.CopyID,
		UserID:       loan.UserID,
		CheckoutDate: loan.CheckoutDate,
		DueDate:      loan.DueDate,
		ReturnDate:   loan.ReturnDate,
		RenewCount:   loan.RenewCount,
	}
}

func FromModelToLoanResponses(loans []models.Loan) []LoanResponse {
	out := make([]LoanResponse, 0, len(loans))
	for i := range loans {
		out = append(out, FromModelToLoanResponse(&loans[i]))
	}
	return out
}
