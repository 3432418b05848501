package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoanRenew_ExtendsFromDueDate(t *testing.T) {
	due := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	loan := &Loan{DueDate: due, RenewCount: 1}

	loan.Renew()

	assert.Equal(t, 2, loan.RenewCount)
	assert.Equal(t, due.Add(LoanPeriod), loan.DueDate)
}

func TestLoanDaysLate(t *testing.T) {
	due := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	loan := &Loan{DueDate: due}
	assert.Equal(t, 0, loan.DaysLate())

	onTime := due.Add(-time.Hour)
	loan.ReturnDate = &onTime
	assert.Equal(t, 0, loan.DaysLate())

	late := due.Add(3*24*time.Hour + time.Hour)
	loan.ReturnDate = &late
	assert.Equal(t, 3, loan.DaysLate())
}

func TestLoanMarkReturned(t *testing.T) {
	now := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	loan := &Loan{}

	assert.False(t, loan.IsReturned())
	loan.MarkReturned(now)
	assert.True(t, loan.IsReturned())
	assert.Equal(t, now, *loan.ReturnDate)
}
