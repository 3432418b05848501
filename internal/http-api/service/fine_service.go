package service

import (
	"context"
	"fmt"

	"circdesk/internal/http-api/models"
	"circdesk/internal/http-api/repository"
)

type FineService interface {
	CreateFine(ctx context.Context, subjectUserID string, loanID, amountCents int64, reason, requestorID string) (*models.Fine, error)
	PayFine(ctx context.Context, fineID int64, requestorID string) (*models.Fine, error)
	WaiveFine(ctx context.Context, fineID int64, requestorID string) (*models.Fine, error)

	GetUserFines(ctx context.Context, requestorID, subjectUserID string) ([]models.Fine, error)
	GetOutstandingFines(ctx context.Context, requestorID, subjectUserID string) ([]models.Fine, error)
	GetTotalOutstandingCents(ctx context.Context, requestorID, subjectUserID string) (int64, error)
	HasOutstandingFines(ctx context.Context, requestorID, subjectUserID string) (bool, error)
}

type fineService struct {
	fines  repository.FineRepository
	users  repository.UserRepository
	policy *AccessPolicy
	clock  Clock
}

func NewFineService(
	fines repository.FineRepository,
	users repository.UserRepository,
	policy *AccessPolicy,
	clock Clock,
) FineService {
	return &fineService{
		fines:  fines,
		users:  users,
		policy: policy,
		clock:  clock,
	}
}

// CreateFine records a new UNPAID fine against a user. Staff only; the amount
// must be strictly positive.
func (s *fineService) CreateFine(ctx context.Context, subjectUserID string, loanID, amountCents int64, reason, requestorID string) (*models.Fine, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: fine amount must be positive, got %d cents", ErrInvalidArgument, amountCents)
	}

	subject, err := s.users.FindByID(ctx, subjectUserID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: subject user %s", ErrNotFound, subjectUserID)
	}

	fine := &models.Fine{
		UserID:      subjectUserID,
		LoanID:      loanID,
		AmountCents: amountCents,
		FineDate:    s.clock.Now(),
		Reason:      reason,
		Status:      models.FineUnpaid,
	}
	if err := s.fines.Create(ctx, fine); err != nil {
		return nil, err
	}
	return fine, nil
}

// PayFine settles a fine in full. Only the owning user may pay; PAID and
// WAIVED are terminal. No partial payment.
func (s *fineService) PayFine(ctx context.Context, fineID int64, requestorID string) (*models.Fine, error) {
	if _, err := s.policy.Requestor(ctx, requestorID); err != nil {
		return nil, err
	}

	fine, err := s.fines.FindByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if fine == nil {
		return nil, fmt.Errorf("%w: fine %d", ErrNotFound, fineID)
	}
	if fine.UserID != requestorID {
		return nil, fmt.Errorf("%w: you can only pay your own fines", ErrAuthorizationFailed)
	}
	if fine.IsSettled() {
		return nil, fmt.Errorf("%w: fine is already %s", ErrFinePaymentNotAllowed, fine.Status)
	}

	fine.MarkPaid()
	if err := s.fines.Update(ctx, fine); err != nil {
		return nil, err
	}
	return fine, nil
}

// WaiveFine forgives a fine. Staff only; PAID and WAIVED are terminal.
func (s *fineService) WaiveFine(ctx context.Context, fineID int64, requestorID string) (*models.Fine, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}

	fine, err := s.fines.FindByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if fine == nil {
		return nil, fmt.Errorf("%w: fine %d", ErrNotFound, fineID)
	}
	if fine.IsSettled() {
		return nil, fmt.Errorf("%w: fine is already %s", ErrFineWaivementNotAllowed, fine.Status)
	}

	fine.MarkWaived()
	if err := s.fines.Update(ctx, fine); err != nil {
		return nil, err
	}
	return fine, nil
}

func (s *fineService) requireSubject(ctx context.Context, requestorID, subjectUserID string) error {
	if _, err := s.policy.RequireSelfOrStaff(ctx, requestorID, subjectUserID); err != nil {
		return err
	}
	subject, err := s.users.FindByID(ctx, subjectUserID)
	if err != nil {
		return err
	}
	if subject == nil {
		return fmt.Errorf("%w: subject user %s", ErrNotFound, subjectUserID)
	}
	return nil
}

// GetUserFines lists all fines for a user, self or staff.
func (s *fineService) GetUserFines(ctx context.Context, requestorID, subjectUserID string) ([]models.Fine, error) {
	if err := s.requireSubject(ctx, requestorID, subjectUserID); err != nil {
		return nil, err
	}
	return s.fines.FindByUser(ctx, subjectUserID)
}

// GetOutstandingFines lists UNPAID fines for a user, self or staff.
func (s *fineService) GetOutstandingFines(ctx context.Context, requestorID, subjectUserID string) ([]models.Fine, error) {
	if err := s.requireSubject(ctx, requestorID, subjectUserID); err != nil {
		return nil, err
	}
	return s.fines.FindByUserAndStatus(ctx, subjectUserID, models.FineUnpaid)
}

// GetTotalOutstandingCents sums a user's UNPAID fines, self or staff.
func (s *fineService) GetTotalOutstandingCents(ctx context.Context, requestorID, subjectUserID string) (int64, error) {
	if err := s.requireSubject(ctx, requestorID, subjectUserID); err != nil {
		return 0, err
	}
	return s.fines.SumUnpaidCents(ctx, subjectUserID)
}

// HasOutstandingFines reports whether a user owes anything, self or staff.
func (s *fineService) HasOutstandingFines(ctx context.Context, requestorID, subjectUserID string) (bool, error) {
	total, err := s.GetTotalOutstandingCents(ctx, requestorID, subjectUserID)
	if err != nil {
		return false, err
	}
	return total > 0, nil
}
