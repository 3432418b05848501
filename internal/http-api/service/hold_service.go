package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"circdesk/internal/http-api/models"
	"circdesk/internal/http-api/repository"
)

type HoldService interface {
	PlaceHold(ctx context.Context, titleID int64, requestorID string) (*models.Hold, error)
	CancelHold(ctx context.Context, holdID int64, requestorID string) (*models.Hold, error)
	ProcessNextHold(ctx context.Context, titleID, copyID int64, requestorID string) (*models.Hold, error)
	CompleteHoldPickup(ctx context.Context, holdID int64, requestorID string) (*models.Hold, error)
	ProcessExpiredHolds(ctx context.Context, requestorID string) ([]models.Hold, error)

	GetUserHolds(ctx context.Context, requestorID, userID string) ([]models.Hold, error)
	GetHoldsForTitle(ctx context.Context, requestorID string, titleID int64) ([]models.Hold, error)
	GetHoldPosition(ctx context.Context, requestorID string, holdID int64) (int, error)
	CanPlaceHold(ctx context.Context, requestorID, userID string, titleID int64) (bool, error)
}

// titleLocks hands out one mutex per title so that reading the max queue
// position and inserting behind it is serialized per title.
type titleLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (t *titleLocks) forTitle(titleID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locks == nil {
		t.locks = make(map[int64]*sync.Mutex)
	}
	lock, ok := t.locks[titleID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[titleID] = lock
	}
	return lock
}

type holdService struct {
	holds  repository.HoldRepository
	titles repository.TitleRepository
	copies repository.CopyRepository
	policy *AccessPolicy
	tx     repository.TxRunner
	clock  Clock
	logger *slog.Logger

	queueLocks titleLocks
}

func NewHoldService(
	holds repository.HoldRepository,
	titles repository.TitleRepository,
	copies repository.CopyRepository,
	policy *AccessPolicy,
	tx repository.TxRunner,
	clock Clock,
	logger *slog.Logger,
) HoldService {
	return &holdService{
		holds:  holds,
		titles: titles,
		copies: copies,
		policy: policy,
		tx:     tx,
		clock:  clock,
		logger: logger,
	}
}

// reorderQueue reassigns consecutive positions 1..N to the active holds of a
// title, writing only the holds whose position changed. Runs after any
// removal so the queue stays gap-free.
func (s *holdService) reorderQueue(ctx context.Context, titleID int64) error {
	holds, err := s.holds.FindActiveByTitleOrdered(ctx, titleID)
	if err != nil {
		return err
	}
	for i := range holds {
		newPosition := i + 1
		if holds[i].Position != newPosition {
			holds[i].Position = newPosition
			if err := s.holds.Update(ctx, &holds[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// PlaceHold queues a member behind everyone already waiting for a title.
// Rejected when any copy is still available, because the member should just
// check out.
func (s *holdService) PlaceHold(ctx context.Context, titleID int64, requestorID string) (*models.Hold, error) {
	requestor, err := s.policy.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	if requestor.IsStaff() {
		return nil, fmt.Errorf("%w: staff members cannot place holds", ErrAuthorizationFailed)
	}

	title, err := s.titles.FindByID(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if title == nil || !title.IsVisible {
		return nil, fmt.Errorf("%w: title not found or not available for holds", ErrNotFound)
	}

	existing, err := s.holds.FindActiveByUserAndTitle(ctx, requestorID, titleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: you already have an active hold on this title", ErrHoldChangeNotAllowed)
	}

	available, err := s.copies.FindAvailableByTitle(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if len(available) > 0 {
		return nil, fmt.Errorf("%w: copies are available, please check out directly", ErrHoldChangeNotAllowed)
	}

	// Position assignment is read-then-write on shared per-title state, so
	// concurrent placements must not interleave here.
	lock := s.queueLocks.forTitle(titleID)
	lock.Lock()
	defer lock.Unlock()

	var hold *models.Hold
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		maxPos, err := s.holds.MaxActivePosition(ctx, titleID)
		if err != nil {
			return err
		}
		hold = &models.Hold{
			UserID:   requestorID,
			TitleID:  titleID,
			Status:   models.HoldQueued,
			PlacedAt: s.clock.Now(),
			Position: maxPos + 1,
		}
		return s.holds.Create(ctx, hold)
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// CancelHold marks a hold CANCELLED and closes the gap it leaves. Staff may
// cancel any hold, members only their own.
func (s *holdService) CancelHold(ctx context.Context, holdID int64, requestorID string) (*models.Hold, error) {
	requestor, err := s.policy.Requestor(ctx, requestorID)
	if err != nil {
		return nil, err
	}

	hold, err := s.holds.FindByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, fmt.Errorf("%w: hold %d", ErrNotFound, holdID)
	}
	if !requestor.IsStaff() && hold.UserID != requestorID {
		return nil, fmt.Errorf("%w: you can only cancel your own holds", ErrAuthorizationFailed)
	}
	if !hold.IsActive() {
		return nil, fmt.Errorf("%w: hold is already %s", ErrHoldChangeNotAllowed, hold.Status)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		// A READY hold still owns a reserved copy; release it.
		if hold.Status == models.HoldReady && hold.CopyID != nil {
			if _, err := s.copies.ClaimStatus(ctx, *hold.CopyID, models.CopyReserved, models.CopyAvailable); err != nil {
				return err
			}
		}
		hold.MarkCancelled()
		if err := s.holds.Update(ctx, hold); err != nil {
			return err
		}
		return s.reorderQueue(ctx, hold.TitleID)
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// ProcessNextHold reserves an available copy for the head of a title's queue.
// Staff only.
func (s *holdService) ProcessNextHold(ctx context.Context, titleID, copyID int64, requestorID string) (*models.Hold, error) {
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
	if !copy.IsAvailable() {
		return nil, fmt.Errorf("%w: copy is not available for hold processing", ErrHoldChangeNotAllowed)
	}

	nextHold, err := s.holds.FindNextQueued(ctx, titleID)
	if err != nil {
		return nil, err
	}
	if nextHold == nil {
		return nil, fmt.Errorf("%w: no holds in queue for this title", ErrNotFound)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		claimed, err := s.copies.ClaimStatus(ctx, copyID, models.CopyAvailable, models.CopyReserved)
		if err != nil {
			return err
		}
		if !claimed {
			return fmt.Errorf("%w: copy was claimed by another operation", ErrHoldChangeNotAllowed)
		}
		nextHold.MarkReady(copyID, s.clock.Now())
		return s.holds.Update(ctx, nextHold)
	})
	if err != nil {
		return nil, err
	}
	return nextHold, nil
}

// CompleteHoldPickup hands a READY hold's copy over the desk. The checkout
// flow creates the loan; this only moves the copy and hold state. Staff only.
func (s *holdService) CompleteHoldPickup(ctx context.Context, holdID int64, requestorID string) (*models.Hold, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}

	hold, err := s.holds.FindByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		return nil, fmt.Errorf("%w: hold %d", ErrNotFound, holdID)
	}
	if hold.Status != models.HoldReady {
		return nil, fmt.Errorf("%w: hold is not ready for pickup", ErrHoldChangeNotAllowed)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if hold.CopyID != nil {
			if _, err := s.copies.ClaimStatus(ctx, *hold.CopyID, models.CopyReserved, models.CopyCheckedOut); err != nil {
				return err
			}
		}
		hold.MarkPickedUp()
		if err := s.holds.Update(ctx, hold); err != nil {
			return err
		}
		return s.reorderQueue(ctx, hold.TitleID)
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// ProcessExpiredHolds sweeps READY holds whose pickup window has elapsed,
// releasing their copies and promoting the next member in each queue when a
// copy is free. A failed promotion is logged and skipped so the sweep
// finishes. Staff only, intended for a periodic trigger.
func (s *holdService) ProcessExpiredHolds(ctx context.Context, requestorID string) ([]models.Hold, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}

	expired, err := s.holds.FindExpired(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}

	processed := make([]models.Hold, 0, len(expired))
	for i := range expired {
		hold := &expired[i]

		err := s.tx.InTx(ctx, func(ctx context.Context) error {
			if hold.CopyID != nil {
				if _, err := s.copies.ClaimStatus(ctx, *hold.CopyID, models.CopyReserved, models.CopyAvailable); err != nil {
					return err
				}
			}
			hold.MarkExpired()
			if err := s.holds.Update(ctx, hold); err != nil {
				return err
			}
			return s.reorderQueue(ctx, hold.TitleID)
		})
		if err != nil {
			s.logger.Error("expire hold failed", "hold_id", hold.ID, "error", err)
			continue
		}
		processed = append(processed, *hold)

		// Best effort: the freed copy can serve the next member in line.
		available, err := s.copies.FindAvailableByTitle(ctx, hold.TitleID)
		if err != nil {
			s.logger.Error("list available copies failed", "title_id", hold.TitleID, "error", err)
			continue
		}
		if len(available) > 0 {
			if _, err := s.ProcessNextHold(ctx, hold.TitleID, available[0].ID, requestorID); err != nil {
				s.logger.Warn("promote next hold failed", "title_id", hold.TitleID, "error", err)
			}
		}
	}
	return processed, nil
}

// GetUserHolds lists a user's holds, self or staff.
func (s *holdService) GetUserHolds(ctx context.Context, requestorID, userID string) ([]models.Hold, error) {
	if _, err := s.policy.RequireSelfOrStaff(ctx, requestorID, userID); err != nil {
		return nil, err
	}
	return s.holds.FindByUser(ctx, userID)
}

// GetHoldsForTitle lists every hold on a title. Staff only.
func (s *holdService) GetHoldsForTitle(ctx context.Context, requestorID string, titleID int64) ([]models.Hold, error) {
	if _, err := s.policy.RequireStaff(ctx, requestorID); err != nil {
		return nil, err
	}
	return s.holds.FindByTitle(ctx, titleID)
}

// GetHoldPosition returns a hold's queue position, owner or staff.
func (s *holdService) GetHoldPosition(ctx context.Context, requestorID string, holdID int64) (int, error) {
	requestor, err := s.policy.Requestor(ctx, requestorID)
	if err != nil {
		return 0, err
	}
	hold, err := s.holds.FindByID(ctx, holdID)
	if err != nil {
		return 0, err
	}
	if hold == nil {
		return 0, fmt.Errorf("%w: hold %d", ErrNotFound, holdID)
	}
	if !requestor.IsStaff() && hold.UserID != requestorID {
		return 0, fmt.Errorf("%w: you can only check your own hold positions", ErrAuthorizationFailed)
	}
	return hold.Position, nil
}

// CanPlaceHold reports hold eligibility without placing one.
func (s *holdService) CanPlaceHold(ctx context.Context, requestorID, userID string, titleID int64) (bool, error) {
	if _, err := s.policy.RequireSelfOrStaff(ctx, requestorID, userID); err != nil {
		return false, err
	}

	title, err := s.titles.FindByID(ctx, titleID)
	if err != nil {
		return false, err
	}
	if title == nil || !title.IsVisible {
		return false, nil
	}

	existing, err := s.holds.FindActiveByUserAndTitle(ctx, userID, titleID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	available, err := s.copies.FindAvailableByTitle(ctx, titleID)
	if err != nil {
		return false, err
	}
	return len(available) == 0, nil
}
