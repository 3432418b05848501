package repository

import (
	"context"
	"errors"
	"fmt"

	"circdesk/internal/http-api/models"

	"gorm.io/gorm"
)

type FineRepository interface {
	Create(ctx context.Context, fine *models.Fine) error
	FindByID(ctx context.Context, id int64) (*models.Fine, error)
	FindByUser(ctx context.Context, userID string) ([]models.Fine, error)
	FindByUserAndStatus(ctx context.Context, userID string, status models.FineStatus) ([]models.Fine, error)
	SumUnpaidCents(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, fine *models.Fine) error
}

type fineRepository struct {
	db *gorm.DB
}

func NewFineRepository(db *gorm.DB) FineRepository {
	return &fineRepository{db: db}
}

func (r *fineRepository) Create(ctx context.Context, fine *models.Fine) error {
	if err := dbFrom(ctx, r.db).Create(fine).Error; err != nil {
		return fmt.Errorf("create fine: %w", err)
	}
	return nil
}

func (r *fineRepository) FindByID(ctx context.Context, id int64) (*models.Fine, error) {
	var fine models.Fine
	if err := dbFrom(ctx, r.db).First(&fine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find fine: %w", err)
	}
	return &fine, nil
}

func (r *fineRepository) FindByUser(ctx context.Context, userID string) ([]models.Fine, error) {
	var fines []models.Fine
	if err := dbFrom(ctx, r.db).
		Where("user_id = ?", userID).
		Order("fine_date DESC").
		Find(&fines).Error; err != nil {
		return nil, fmt.Errorf("list fines by user: %w", err)
	}
	return fines, nil
}

func (r *fineRepository) FindByUserAndStatus(ctx context.Context, userID string, status models.FineStatus) ([]models.Fine, error) {
	var fines []models.Fine
	if err := dbFrom(ctx, r.db).
		Where("user_id = ? AND status = ?", userID, status).
		Order("fine_date DESC").
		Find(&fines).Error; err != nil {
		return nil, fmt.Errorf("list fines by user and status: %w", err)
	}
	return fines, nil
}

func (r *fineRepository) SumUnpaidCents(ctx context.Context, userID string) (int64, error) {
	var total *int64
	if err := dbFrom(ctx, r.db).
		Model(&models.Fine{}).
		Where("user_id = ? AND status = ?", userID, models.FineUnpaid).
		Select("SUM(amount_cents)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum unpaid fines: %w", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *fineRepository) Update(ctx context.Context, fine *models.Fine) error {
	if err := dbFrom(ctx, r.db).Save(fine).Error; err != nil {
		return fmt.Errorf("update fine: %w", err)
	}
	return nil
}
