package repository

import (
	"context"
	"errors"
	"fmt"

	"circdesk/internal/http-api/models"

	"gorm.io/gorm"
)

type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, id int64) (*models.Loan, error)
	FindByUser(ctx context.Context, userID string) ([]models.Loan, error)
	FindActiveByUser(ctx context.Context, userID string) ([]models.Loan, error)
	CountActiveByUser(ctx context.Context, userID string) (int64, error)
	FindByCopy(ctx context.Context, copyID int64) ([]models.Loan, error)
	FindByCopyIDs(ctx context.Context, copyIDs []int64) ([]models.Loan, error)
	FindActiveByCopy(ctx context.Context, copyID int64) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if err := dbFrom(ctx, r.db).Create(loan).Error; err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

func (r *loanRepository) FindByID(ctx context.Context, id int64) (*models.Loan, error) {
	var loan models.Loan
	if err := dbFrom(ctx, r.db).First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find loan: %w", err)
	}
	return &loan, nil
}

func (r *loanRepository) FindByUser(ctx context.Context, userID string) ([]models.Loan, error) {
	var loans []models.Loan
	if err := dbFrom(ctx, r.db).
		Where("user_id = ?", userID).
		Order("checkout_date DESC").
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("list loans by user: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) FindActiveByUser(ctx context.Context, userID string) ([]models.Loan, error) {
	var loans []models.Loan
	if err := dbFrom(ctx, r.db).
		Where("user_id = ? AND return_date IS NULL", userID).
		Order("due_date ASC").
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("list active loans by user: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&models.Loan{}).
		Where("user_id = ? AND return_date IS NULL", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return count, nil
}

func (r *loanRepository) FindByCopy(ctx context.Context, copyID int64) ([]models.Loan, error) {
	var loans []models.Loan
	if err := dbFrom(ctx, r.db).
		Where("copy_id = ?", copyID).
		Order("checkout_date DESC").
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("list loans by copy: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) FindByCopyIDs(ctx context.Context, copyIDs []int64) ([]models.Loan, error) {
	if len(copyIDs) == 0 {
		return nil, nil
	}
	var loans []models.Loan
	if err := dbFrom(ctx, r.db).
		Where("copy_id IN ?", copyIDs).
		Order("checkout_date DESC").
		Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("list loans by copies: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) FindActiveByCopy(ctx context.Context, copyID int64) (*models.Loan, error) {
	var loan models.Loan
	if err := dbFrom(ctx, r.db).
		Where("copy_id = ? AND return_date IS NULL", copyID).
		First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active loan by copy: %w", err)
	}
	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	if err := dbFrom(ctx, r.db).Save(loan).Error; err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return nil
}
