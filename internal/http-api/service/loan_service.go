package service

import (
	"context"
	"fmt"

	"circdesk/internal/http-api/models"
	"circdesk/internal/http-api/repository"
)

// Business rule constants (service-level policies):
const (
	// MaxActiveLoans caps how many books a member can have out at once.
	MaxActiveLoans = 5
	// MaxOutstandingCents is the unpaid-fine ceiling above which checkout
	// and renewal are blocked ($30.00).
	MaxOutstandingCents = 3000
	// OverdueFineCents is the flat overdue fine ($5.00).
	OverdueFineCents = 500
)

type LoanService interface {
	Checkout(ctx context.Context, barcode, requestorID string) (*models.Loan, error)
	RenewLoan(ctx context.Context, loanID int64, requestorID string) (*models.Loan, error)
	ReturnBook(ctx context.Context, loanID int64, requestorID string) (*models.Loan, error)

	GetLoanHistoryByUser(ctx context.Context, requestorID, subjectUserID string) ([]models.Loan, error)
	GetCurrentLoansByUser(ctx context.Context, requestorID, subjectUserID string) ([]models.Loan, error)
	GetLoanHistoryByTitle(ctx context.Context, requestorID string, titleID int64) ([]models.Loan, error)
	GetLoanHistoryByCopy(ctx context.Context, requestorID string, copyID int64) ([]models.Loan, error)
	GetCurrentLoanByCopy(ctx context.Context, requestorID string, copyID int64) (*models.Loan, error)
}

type loanService struct {
	loans  repository.LoanRepository
	copies repository.CopyRepository
	fines  repository.FineRepository
	policy *AccessPolicy
	tx     repository.TxRunner
	clock  Clock
}

func NewLoanService(
	loans repository.LoanRepository,
	copies repository.CopyRepository,
	fines repository.FineRepository,
	policy *AccessPolicy,
	tx repository.TxRunner,
	clock Clock,
) LoanService {
	return &loanService{
		loans:  loans,
		copies: copies,
		fines:  fines,
		policy: policy,
		tx:     tx,
		clock:  clock,
	}
}

// hasExcessiveOutstandingFines reports whether unpaid fines exceed the ceiling.
func (s *loanService) hasExcessiveOutstandingFines(ctx context.Context, userID string) (bool, error) {
	total, err := s.fines.SumUnpaidCents(ctx, userID)
	if err != nil {
		return false, err
	}
	return total > MaxOutstandingCents, nil
}

// Checkout creates a loan for the copy with the given barcode. Member only:
// the account must be active and unrestricted, unpaid fines within the
// ceiling, the copy available and the loan limit not reached. The loan insert
// and the copy status flip commit as one transaction.
func (s *loanService) Checkout(ctx context.Context, barcode, requestorID string) (*models.Loan, error) {
	requestor, err := s.policy.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}

	if !requestor.IsActive() {
		return nil, fmt.Errorf("%w: account is inactive, see staff to re-activate", ErrCheckoutNotAllowed)
	}
	if requestor.IsRestricted() {
		return nil, fmt.Errorf("%w: account is restricted, pay outstanding fines and see staff", ErrCheckoutNotAllowed)
	}
	if requestor.IsStaff() {
		return nil, fmt.Errorf("%w: staff cannot checkout books for personal use", ErrAuthorizationFailed)
	}

	excessive, err := s.hasExcessiveOutstandingFines(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	if excessive {
		return nil, fmt.Errorf("%w: outstanding fines exceed limit", ErrCheckoutNotAllowed)
	}

	copy, err := s.copies.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if copy == nil {
		return nil, fmt.Errorf("%w: no copy with barcode %q", ErrNotFound, barcode)
	}
	if !copy.IsAvailable() {
		return nil, fmt.Errorf("%w: copy is not available for checkout", ErrCheckoutNotAllowed)
	}

	activeCount, err := s.loans.CountActiveByUser(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	if activeCount >= MaxActiveLoans {
		return nil, fmt.Errorf("%w: maximum loan limit reached", ErrCheckoutNotAllowed)
	}

	now := s.clock.Now()
	loan := &models.Loan{
		CopyID:       copy.ID,
		UserID:       requestorID,
		CheckoutDate: now,
		DueDate:      now.Add(models.LoanPeriod),
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		// The claim loses if a concurrent checkout or hold promotion took
		// the copy after our availability read.
		claimed, err := s.copies.ClaimStatus(ctx, copy.ID, models.CopyAvailable, models.CopyCheckedOut)
		if err != nil {
			return err
		}
		if !claimed {
			return fmt.Errorf("%w: copy is not available for checkout", ErrCheckoutNotAllowed)
		}
		return s.loans.Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// RenewLoan extends a loan by one period. Staff may renew past the member
// renewal cap on behalf of members; a reserved copy blocks renewal for both.
func (s *loanService) RenewLoan(ctx context.Context, loanID int64, requestorID string) (*models.Loan, error) {
	requestor, err := s.policy.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: loan %d", ErrNotFound, loanID)
	}

	copy, err := s.copies.FindByID(ctx, loan.CopyID)
	if err != nil {
		return nil, err
	}
	if copy != nil && copy.IsReserved() {
		return nil, fmt.Errorf("%w: copy is reserved for another member", ErrRenewalNotAllowed)
	}

	if !requestor.IsStaff() {
		if loan.UserID != requestorID {
			return nil, fmt.Errorf("%w: you can only renew your own loans", ErrAuthorizationFailed)
		}
		excessive, err := s.hasExcessiveOutstandingFines(ctx, loan.UserID)
		if err != nil {
			return nil, err
		}
		if excessive {
			return nil, fmt.Errorf("%w: cannot renew with outstanding fines", ErrCheckoutNotAllowed)
		}
		if loan.RenewCount >= models.MaxRenewals {
			return nil, fmt.Errorf("%w: renewal limit reached", ErrRenewalNotAllowed)
		}
	}

	if loan.IsReturned() {
		return nil, fmt.Errorf("%w: book already returned", ErrRenewalNotAllowed)
	}

	loan.Renew()
	if err := s.loans.Update(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// ReturnBook closes a loan. Member only, and only their own loan. A late
// return creates the flat overdue fine; loan, fine and copy commit together.
func (s *loanService) ReturnBook(ctx context.Context, loanID int64, requestorID string) (*models.Loan, error) {
	requestor, err := s.policy.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: loan %d", ErrNotFound, loanID)
	}

	if requestor.IsStaff() {
		return nil, fmt.Errorf("%w: staff accounts cannot return books", ErrAuthorizationFailed)
	}
	if loan.UserID != requestorID {
		return nil, fmt.Errorf("%w: you can only return your own books", ErrAuthorizationFailed)
	}
	if loan.IsReturned() {
		return nil, fmt.Errorf("%w: loan %d", ErrBookAlreadyReturned, loanID)
	}

	now := s.clock.Now()
	loan.MarkReturned(now)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.loans.Update(ctx, loan); err != nil {
			return err
		}
		if loan.ReturnDate.After(loan.DueDate) {
			fine := &models.Fine{
				UserID:      loan.UserID,
				LoanID:      loan.ID,
				AmountCents: OverdueFineCents,
				FineDate:    now,
				Reason:      fmt.Sprintf("System generated fine: Overdue return - %d days late.", loan.DaysLate()),
				Status:      models.FineUnpaid,
			}
			if err := s.fines.Create(ctx, fine); err != nil {
				return err
			}
		}
		if _, err := s.copies.ClaimStatus(ctx, loan.CopyID, models.CopyCheckedOut, models.CopyAvailable); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// GetLoanHistoryByUser lists all loans for a user, self or staff.
func (s *loanService) GetLoanHistoryByUser(ctx context.Context, requestorID, subjectUserID string) ([]models.Loan, error) {
	if _, err := s.policy.RequireSelfOrStaff(ctx, requestorID, subjectUserID); err != nil {
		return nil, err
	}
	return s.loans.FindByUser(ctx, subjectUserID)
}

// GetCurrentLoansByUser lists un-returned loans for a user, self or staff.
func (s *loanService) GetCurrentLoansByUser(ctx context.Context, requestorID, subjectUserID string) ([]models.Loan, error) {
	if _, err := s.policy.RequireSelfOrStaff(ctx, requestorID, subjectUserID); err != nil {
		return nil, err
	}
	return s.loans.FindActiveByUser(ctx, subjectUserID)
}

// GetLoanHistoryByTitle lists loans across every copy of a title. Staff only.
func (s *loanService) GetLoanHistoryByTitle(ctx context.Context, requestorID string, titleID int64) ([]models.Loan, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	copies, err := s.copies.FindByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	copyIDs := make([]int64, 0, len(copies))
	for _, c := range copies {
		copyIDs = append(copyIDs, c.ID)
	}
	return s.loans.FindByCopyIDs(ctx, copyIDs)
}

// GetLoanHistoryByCopy lists loans for one copy. Staff only.
func (s *loanService) GetLoanHistoryByCopy(ctx context.Context, requestorID string, copyID int64) ([]models.Loan, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	copy, err := s.copies.FindByID(ctx, copyID)
	if err != nil {
		return nil, err
	}
	if copy == nil {
		return nil, fmt.Errorf("%w: copy %d", ErrNotFound, copyID)
	}
	return s.loans.FindByCopy(ctx, copyID)
}

// GetCurrentLoanByCopy returns the active loan on a copy, if any. Staff only.
func (s *loanService) GetCurrentLoanByCopy(ctx context.Context, requestorID string, copyID int64) (*models.Loan, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	return s.loans.FindActiveByCopy(ctx, copyID)
}
