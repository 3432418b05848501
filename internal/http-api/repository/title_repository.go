package repository

import (
	"context"
	"errors"
	"fmt"

	"circdesk/internal/http-api/models"

	"gorm.io/gorm"
)

type TitleRepository interface {
	Create(ctx context.Context, title *models.Title) error
	FindByID(ctx context.Context, id int64) (*models.Title, error)
	FindByISBN(ctx context.Context, isbn string) (*models.Title, error)
	FindAll(ctx context.Context, visibleOnly bool) ([]models.Title, error)
	Update(ctx context.Context, title *models.Title) error
	Delete(ctx context.Context, id int64) (int64, error)
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) Create(ctx context.Context, title *models.Title) error {
	if err := dbFrom(ctx, r.db).Create(title).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

func (r *titleRepository) FindByID(ctx context.Context, id int64) (*models.Title, error) {
	var title models.Title
	if err := dbFrom(ctx, r.db).First(&title, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find title: %w", err)
	}
	return &title, nil
}

func (r *titleRepository) FindByISBN(ctx context.Context, isbn string) (*models.Title, error) {
	var title models.Title
	if err := dbFrom(ctx, r.db).First(&title, "isbn = ?", isbn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find title by isbn: %w", err)
	}
	return &title, nil
}

func (r *titleRepository) FindAll(ctx context.Context, visibleOnly bool) ([]models.Title, error) {
	var titles []models.Title
	q := dbFrom(ctx, r.db).Order("name ASC")
	if visibleOnly {
		q = q.Where("is_visible = ?", true)
	}
	if err := q.Find(&titles).Error; err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	return titles, nil
}

func (r *titleRepository) Update(ctx context.Context, title *models.Title) error {
	if err := dbFrom(ctx, r.db).Save(title).Error; err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

func (r *titleRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result := dbFrom(ctx, r.db).Delete(&models.Title{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete title: %w", result.Error)
	}
	return result.RowsAffected, nil
}
