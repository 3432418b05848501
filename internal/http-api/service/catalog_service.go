package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"circdesk/internal/http-api/models"
	"circdesk/internal/http-api/repository"

	"github.com/redis/go-redis/v9"
)

// CatalogService manages titles and copies. Every mutation is staff only;
// reads of visible titles are public. Availability summaries are cached in
// redis and dropped on catalog mutations; circulation transitions (checkout,
// return, reserve) age out with the TTL, so keep it short.
type CatalogService interface {
	CreateTitle(ctx context.Context, title *models.Title, requestorID string) (*models.Title, error)
	UpdateTitle(ctx context.Context, title *models.Title, requestorID string) (*models.Title, error)
	DeleteTitle(ctx context.Context, titleID int64, requestorID string) error
	GetTitle(ctx context.Context, titleID int64) (*models.Title, error)
	GetTitleForStaff(ctx context.Context, requestorID string, titleID int64) (*models.Title, error)
	ListTitles(ctx context.Context, requestorID string) ([]models.Title, error)

	AddCopy(ctx context.Context, copy *models.Copy, requestorID string) (*models.Copy, error)
	SetCopyStatus(ctx context.Context, copyID int64, status models.CopyStatus, requestorID string) (*models.Copy, error)
	RemoveCopy(ctx context.Context, copyID int64, requestorID string) error

	GetAvailability(ctx context.Context, titleID int64) (*models.AvailabilitySummary, error)
}

type catalogService struct {
	titles repository.TitleRepository
	copies repository.CopyRepository
	policy *AccessPolicy
	cache  *redis.Client // nil disables caching
	ttl    time.Duration
	logger *slog.Logger
}

func NewCatalogService(
	titles repository.TitleRepository,
	copies repository.CopyRepository,
	policy *AccessPolicy,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger *slog.Logger,
) CatalogService {
	return &catalogService{
		titles: titles,
		copies: copies,
		policy: policy,
		cache:  cache,
		ttl:    cacheTTL,
		logger: logger,
	}
}

func availabilityKey(titleID int64) string {
	return fmt.Sprintf("availability:title:%d", titleID)
}

func (s *catalogService) dropAvailability(ctx context.Context, titleID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, availabilityKey(titleID)).Err(); err != nil {
		s.logger.Warn("drop availability cache failed", "title_id", titleID, "error", err)
	}
}

func (s *catalogService) CreateTitle(ctx context.Context, title *models.Title, requestorID string) (*models.Title, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	if title.ISBN == "" || title.Name == "" {
		return nil, fmt.Errorf("%w: isbn and name are required", ErrInvalidArgument)
	}
	existing, err := s.titles.FindByISBN(ctx, title.ISBN)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: a title with ISBN %s already exists", ErrInvalidArgument, title.ISBN)
	}
	if err := s.titles.Create(ctx, title); err != nil {
		return nil, err
	}
	return title, nil
}

func (s *catalogService) UpdateTitle(ctx context.Context, title *models.Title, requestorID string) (*models.Title, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	existing, err := s.titles.FindByID(ctx, title.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: title %d", ErrNotFound, title.ID)
	}
	if err := s.titles.Update(ctx, title); err != nil {
		return nil, err
	}
	s.dropAvailability(ctx, title.ID)
	return title, nil
}

func (s *catalogService) DeleteTitle(ctx context.Context, titleID int64, requestorID string) error {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return err
	}
	affected, err := s.titles.Delete(ctx, titleID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: title %d", ErrNotFound, titleID)
	}
	s.dropAvailability(ctx, titleID)
	return nil
}

func (s *catalogService) GetTitle(ctx context.Context, titleID int64) (*models.Title, error) {
	title, err := s.titles.FindByID(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if title == nil || !title.IsVisible {
		return nil, fmt.Errorf("%w: title %d", ErrNotFound, titleID)
	}
	return title, nil
}

// GetTitleForStaff fetches a title regardless of visibility. Staff only.
// Catalog edits merge onto this, so hidden titles stay editable.
func (s *catalogService) GetTitleForStaff(ctx context.Context, requestorID string, titleID int64) (*models.Title, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	title, err := s.titles.FindByID(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, fmt.Errorf("%w: title %d", ErrNotFound, titleID)
	}
	return title, nil
}

// ListTitles returns all titles for staff and visible ones for everyone else.
func (s *catalogService) ListTitles(ctx context.Context, requestorID string) ([]models.Title, error) {
	requestor, err := s.policy.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	return s.titles.FindAll(ctx, !requestor.IsStaff())
}

func (s *catalogService) AddCopy(ctx context.Context, copy *models.Copy, requestorID string) (*models.Copy, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	if copy.Barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", ErrInvalidArgument)
	}
	title, err := s.titles.FindByID(ctx, copy.TitleID)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, fmt.Errorf("%w: title %d", ErrNotFound, copy.TitleID)
	}
	if copy.Status == "" {
		copy.Status = models.CopyAvailable
	}
	if !models.ValidCopyStatus(copy.Status) {
		return nil, fmt.Errorf("%w: unknown copy status %q", ErrInvalidArgument, copy.Status)
	}
	if err := s.copies.Create(ctx, copy); err != nil {
		return nil, err
	}
	s.dropAvailability(ctx, copy.TitleID)
	return copy, nil
}

// SetCopyStatus moves a copy into an administrative state (LOST, DAMAGED,
// MAINTENANCE) or back to AVAILABLE. Circulation states are owned by the
// loan and hold flows and cannot be set here.
func (s *catalogService) SetCopyStatus(ctx context.Context, copyID int64, status models.CopyStatus, requestorID string) (*models.Copy, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	if !models.ValidCopyStatus(status) {
		return nil, fmt.Errorf("%w: unknown copy status %q", ErrInvalidArgument, status)
	}
	if status == models.CopyCheckedOut || status == models.CopyReserved {
		return nil, fmt.Errorf("%w: %s is set by circulation, not directly", ErrInvalidArgument, status)
	}
	copy, err := s.copies.FindByID(ctx, copyID)
	if err != nil {
		return nil, err
	}
	if copy == nil {
		return nil, fmt.Errorf("%w: copy %d", ErrNotFound, copyID)
	}
	copy.Status = status
	if err := s.copies.Update(ctx, copy); err != nil {
		return nil, err
	}
	s.dropAvailability(ctx, copy.TitleID)
	return copy, nil
}

func (s *catalogService) RemoveCopy(ctx context.Context, copyID int64, requestorID string) error {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return err
	}
	copy, err := s.copies.FindByID(ctx, copyID)
	if err != nil {
		return err
	}
	if copy == nil {
		return fmt.Errorf("%w: copy %d", ErrNotFound, copyID)
	}
	if copy.IsCheckedOut() || copy.IsReserved() {
		return fmt.Errorf("%w: copy is in circulation", ErrInvalidArgument)
	}
	if _, err := s.copies.Delete(ctx, copyID); err != nil {
		return err
	}
	s.dropAvailability(ctx, copy.TitleID)
	return nil
}

// GetAvailability returns the per-title copy breakdown, serving from redis
// when the entry is warm.
func (s *catalogService) GetAvailability(ctx context.Context, titleID int64) (*models.AvailabilitySummary, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, availabilityKey(titleID)).Result()
		if err == nil {
			var summary models.AvailabilitySummary
			if err := json.Unmarshal([]byte(raw), &summary); err == nil {
				return &summary, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("availability cache read failed", "title_id", titleID, "error", err)
		}
	}

	summary, err := s.copies.SummarizeByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, availabilityKey(titleID), raw, s.ttl).Err(); err != nil {
				s.logger.Warn("availability cache write failed", "title_id", titleID, "error", err)
			}
		}
	}
	return summary, nil
}
