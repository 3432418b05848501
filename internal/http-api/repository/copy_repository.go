package repository

import (
	"context"
	"errors"
	"fmt"

	"circdesk/internal/http-api/models"

	"gorm.io/gorm"
)

type CopyRepository interface {
	Create(ctx context.Context, copy *models.Copy) error
	FindByID(ctx context.Context, id int64) (*models.Copy, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Copy, error)
	FindByTitle(ctx context.Context, titleID int64) ([]models.Copy, error)
	FindAvailableByTitle(ctx context.Context, titleID int64) ([]models.Copy, error)
	Update(ctx context.Context, copy *models.Copy) error
	// ClaimStatus flips a copy's status only if it still has the expected one,
	// reporting whether the claim won. This is the guard against two
	// operations both observing AVAILABLE and both taking the copy.
	ClaimStatus(ctx context.Context, copyID int64, from, to models.CopyStatus) (bool, error)
	SummarizeByTitle(ctx context.Context, titleID int64) (*models.AvailabilitySummary, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type copyRepository struct {
	db *gorm.DB
}

func NewCopyRepository(db *gorm.DB) CopyRepository {
	return &copyRepository{db: db}
}

func (r *copyRepository) Create(ctx context.Context, copy *models.Copy) error {
	if err := dbFrom(ctx, r.db).Create(copy).Error; err != nil {
		return fmt.Errorf("create copy: %w", err)
	}
	return nil
}

func (r *copyRepository) FindByID(ctx context.Context, id int64) (*models.Copy, error) {
	var copy models.Copy
	if err := dbFrom(ctx, r.db).First(&copy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find copy: %w", err)
	}
	return &copy, nil
}

func (r *copyRepository) FindByBarcode(ctx context.Context, barcode string) (*models.Copy, error) {
	var copy models.Copy
	if err := dbFrom(ctx, r.db).First(&copy, "barcode = ?", barcode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find copy by barcode: %w", err)
	}
	return &copy, nil
}

func (r *copyRepository) FindByTitle(ctx context.Context, titleID int64) ([]models.Copy, error) {
	var copies []models.Copy
	if err := dbFrom(ctx, r.db).
		Where("title_id = ?", titleID).
		Order("id ASC").
		Find(&copies).Error; err != nil {
		return nil, fmt.Errorf("list copies by title: %w", err)
	}
	return copies, nil
}

func (r *copyRepository) FindAvailableByTitle(ctx context.Context, titleID int64) ([]models.Copy, error) {
	var copies []models.Copy
	if err := dbFrom(ctx, r.db).
		Where("title_id = ? AND status = ? AND is_visible = ?", titleID, models.CopyAvailable, true).
		Order("id ASC").
		Find(&copies).Error; err != nil {
		return nil, fmt.Errorf("list available copies: %w", err)
	}
	return copies, nil
}

func (r *copyRepository) Update(ctx context.Context, copy *models.Copy) error {
	if err := dbFrom(ctx, r.db).Save(copy).Error; err != nil {
		return fmt.Errorf("update copy: %w", err)
	}
	return nil
}

func (r *copyRepository) ClaimStatus(ctx context.Context, copyID int64, from, to models.CopyStatus) (bool, error) {
	result := dbFrom(ctx, r.db).
		Model(&models.Copy{}).
		Where("id = ? AND status = ?", copyID, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("claim copy status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *copyRepository) SummarizeByTitle(ctx context.Context, titleID int64) (*models.AvailabilitySummary, error) {
	copies, err := r.FindByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	summary := &models.AvailabilitySummary{TitleID: titleID}
	for _, c := range copies {
		if !c.IsVisible {
			continue
		}
		summary.Total++
		switch c.Status {
		case models.CopyAvailable:
			summary.Available++
		case models.CopyCheckedOut:
			summary.CheckedOut++
		case models.CopyReserved:
			summary.Reserved++
		}
	}
	return summary, nil
}

func (r *copyRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result := dbFrom(ctx, r.db).Delete(&models.Copy{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete copy: %w", result.Error)
	}
	return result.RowsAffected, nil
}
