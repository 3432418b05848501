package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circdesk/internal/http-api/models"

	"gorm.io/gorm"
)

var activeHoldStatuses = []models.HoldStatus{models.HoldQueued, models.HoldReady}

type HoldRepository interface {
	Create(ctx context.Context, hold *models.Hold) error
	FindByID(ctx context.Context, id int64) (*models.Hold, error)
	FindByUser(ctx context.Context, userID string) ([]models.Hold, error)
	FindByTitle(ctx context.Context, titleID int64) ([]models.Hold, error)
	// FindActiveByTitleOrdered returns QUEUED/READY holds for a title in
	// ascending queue position, the order reorders walk in.
	FindActiveByTitleOrdered(ctx context.Context, titleID int64) ([]models.Hold, error)
	FindActiveByUserAndTitle(ctx context.Context, userID string, titleID int64) (*models.Hold, error)
	MaxActivePosition(ctx context.Context, titleID int64) (int, error)
	FindNextQueued(ctx context.Context, titleID int64) (*models.Hold, error)
	FindExpired(ctx context.Context, now time.Time) ([]models.Hold, error)
	Update(ctx context.Context, hold *models.Hold) error
}

type holdRepository struct {
	db *gorm.DB
}

func NewHoldRepository(db *gorm.DB) HoldRepository {
	return &holdRepository{db: db}
}

func (r *holdRepository) Create(ctx context.Context, hold *models.Hold) error {
	if err := dbFrom(ctx, r.db).Create(hold).Error; err != nil {
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (r *holdRepository) FindByID(ctx context.Context, id int64) (*models.Hold, error) {
	var hold models.Hold
	if err := dbFrom(ctx, r.db).First(&hold, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find hold: %w", err)
	}
	return &hold, nil
}

func (r *holdRepository) FindByUser(ctx context.Context, userID string) ([]models.Hold, error) {
	var holds []models.Hold
	if err := dbFrom(ctx, r.db).
		Where("user_id = ?", userID).
		Order("placed_at DESC").
		Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("list holds by user: %w", err)
	}
	return holds, nil
}

func (r *holdRepository) FindByTitle(ctx context.Context, titleID int64) ([]models.Hold, error) {
	var holds []models.Hold
	if err := dbFrom(ctx, r.db).
		Where("title_id = ?", titleID).
		Order("position ASC").
		Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("list holds by title: %w", err)
	}
	return holds, nil
}

func (r *holdRepository) FindActiveByTitleOrdered(ctx context.Context, titleID int64) ([]models.Hold, error) {
	var holds []models.Hold
	if err := dbFrom(ctx, r.db).
		Where("title_id = ? AND status IN ?", titleID, activeHoldStatuses).
		Order("position ASC").
		Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("list active holds: %w", err)
	}
	return holds, nil
}

func (r *holdRepository) FindActiveByUserAndTitle(ctx context.Context, userID string, titleID int64) (*models.Hold, error) {
	var hold models.Hold
	if err := dbFrom(ctx, r.db).
		Where("user_id = ? AND title_id = ? AND status IN ?", userID, titleID, activeHoldStatuses).
		First(&hold).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active hold: %w", err)
	}
	return &hold, nil
}

func (r *holdRepository) MaxActivePosition(ctx context.Context, titleID int64) (int, error) {
	var max *int
	if err := dbFrom(ctx, r.db).
		Model(&models.Hold{}).
		Where("title_id = ? AND status IN ?", titleID, activeHoldStatuses).
		Select("MAX(position)").
		Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("max hold position: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *holdRepository) FindNextQueued(ctx context.Context, titleID int64) (*models.Hold, error) {
	var hold models.Hold
	if err := dbFrom(ctx, r.db).
		Where("title_id = ? AND status = ?", titleID, models.HoldQueued).
		Order("position ASC").
		First(&hold).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find next queued hold: %w", err)
	}
	return &hold, nil
}

func (r *holdRepository) FindExpired(ctx context.Context, now time.Time) ([]models.Hold, error) {
	var holds []models.Hold
	if err := dbFrom(ctx, r.db).
		Where("status = ? AND pickup_expire < ?", models.HoldReady, now).
		Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	return holds, nil
}

func (r *holdRepository) Update(ctx context.Context, hold *models.Hold) error {
	if err := dbFrom(ctx, r.db).Save(hold).Error; err != nil {
		return fmt.Errorf("update hold: %w", err)
	}
	return nil
}
