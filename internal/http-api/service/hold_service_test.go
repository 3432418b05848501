package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"circdesk/internal/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type holdFixture struct {
	holds  *MockHoldRepository
	titles *MockTitleRepository
	copies *MockCopyRepository
	users  *MockUserRepository
	svc    HoldService
}

func newHoldFixture() *holdFixture {
	f := &holdFixture{
		holds:  new(MockHoldRepository),
		titles: new(MockTitleRepository),
		copies: new(MockCopyRepository),
		users:  new(MockUserRepository),
	}
	policy := NewAccessPolicy(f.users)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewHoldService(f.holds, f.titles, f.copies, policy, fakeTxRunner{}, fixedClock{t: testNow}, logger)
	return f
}

func visibleTitle(id int64) *models.Title {
	return &models.Title{ID: id, Name: "Some Title", IsVisible: true}
}

func TestPlaceHold_QueuesBehindExisting(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "member-2").Return(activeMember("member-2"), nil)
	f.titles.On("FindByID", mock.Anything, int64(1)).Return(visibleTitle(1), nil)
	f.holds.On("FindActiveByUserAndTitle", mock.Anything, "member-2", int64(1)).Return(nil, nil)
	f.copies.On("FindAvailableByTitle", mock.Anything, int64(1)).Return([]models.Copy{}, nil)
	f.holds.On("MaxActivePosition", mock.Anything, int64(1)).Return(1, nil)
	f.holds.On("Create", mock.Anything, mock.AnythingOfType("*models.Hold")).Return(nil)

	hold, err := f.svc.PlaceHold(context.Background(), 1, "member-2")

	assert.NoError(t, err)
	assert.Equal(t, 2, hold.Position)
	assert.Equal(t, models.HoldQueued, hold.Status)
	assert.Equal(t, testNow, hold.PlacedAt)
	f.holds.AssertExpectations(t)
}

func TestPlaceHold_StaffForbidden(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)

	_, err := f.svc.PlaceHold(context.Background(), 1, "staff-1")

	assert.ErrorIs(t, err, ErrAuthorizationFailed)
}

func TestPlaceHold_HiddenTitle(t *testing.T) {
	f := newHoldFixture()
	title := visibleTitle(1)
	title.IsVisible = false
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.titles.On("FindByID", mock.Anything, int64(1)).Return(title, nil)

	_, err := f.svc.PlaceHold(context.Background(), 1, "member-1")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceHold_DuplicateActiveHold(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.titles.On("FindByID", mock.Anything, int64(1)).Return(visibleTitle(1), nil)
	f.holds.On("FindActiveByUserAndTitle", mock.Anything, "member-1", int64(1)).
		Return(&models.Hold{ID: 5, Status: models.HoldQueued}, nil)

	_, err := f.svc.PlaceHold(context.Background(), 1, "member-1")

	assert.ErrorIs(t, err, ErrHoldChangeNotAllowed)
}

func TestPlaceHold_CopiesAvailable(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.titles.On("FindByID", mock.Anything, int64(1)).Return(visibleTitle(1), nil)
	f.holds.On("FindActiveByUserAndTitle", mock.Anything, "member-1", int64(1)).Return(nil, nil)
	f.copies.On("FindAvailableByTitle", mock.Anything, int64(1)).
		Return([]models.Copy{{ID: 10, Status: models.CopyAvailable}}, nil)

	_, err := f.svc.PlaceHold(context.Background(), 1, "member-1")

	assert.ErrorIs(t, err, ErrHoldChangeNotAllowed)
	f.holds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Cancelling the head of the queue closes the gap: the remaining hold moves
// from position 2 to position 1.
func TestCancelHold_ReordersQueue(t *testing.T) {
	f := newHoldFixture()
	head := &models.Hold{ID: 1, UserID: "member-1", TitleID: 1, Status: models.HoldQueued, Position: 1}
	remaining := []models.Hold{{ID: 2, UserID: "member-2", TitleID: 1, Status: models.HoldQueued, Position: 2}}
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(head, nil)
	f.holds.On("Update", mock.Anything, mock.AnythingOfType("*models.Hold")).Return(nil)
	f.holds.On("FindActiveByTitleOrdered", mock.Anything, int64(1)).Return(remaining, nil)

	cancelled, err := f.svc.CancelHold(context.Background(), 1, "member-1")

	assert.NoError(t, err)
	assert.Equal(t, models.HoldCancelled, cancelled.Status)
	assert.Equal(t, 1, remaining[0].Position)
	f.holds.AssertExpectations(t)
}

func TestCancelHold_ReadyHoldReleasesCopy(t *testing.T) {
	f := newHoldFixture()
	copyID := int64(10)
	hold := &models.Hold{ID: 1, UserID: "member-1", TitleID: 1, CopyID: &copyID, Status: models.HoldReady, Position: 1}
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)
	f.copies.On("ClaimStatus", mock.Anything, copyID, models.CopyReserved, models.CopyAvailable).Return(true, nil)
	f.holds.On("Update", mock.Anything, hold).Return(nil)
	f.holds.On("FindActiveByTitleOrdered", mock.Anything, int64(1)).Return([]models.Hold{}, nil)

	cancelled, err := f.svc.CancelHold(context.Background(), 1, "member-1")

	assert.NoError(t, err)
	assert.Equal(t, models.HoldCancelled, cancelled.Status)
	f.copies.AssertExpectations(t)
}

func TestCancelHold_NotOwner(t *testing.T) {
	f := newHoldFixture()
	hold := &models.Hold{ID: 1, UserID: "member-2", TitleID: 1, Status: models.HoldQueued}
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)

	_, err := f.svc.CancelHold(context.Background(), 1, "member-1")

	assert.ErrorIs(t, err, ErrAuthorizationFailed)
}

func TestCancelHold_StaffMayCancelAny(t *testing.T) {
	f := newHoldFixture()
	hold := &models.Hold{ID: 1, UserID: "member-2", TitleID: 1, Status: models.HoldQueued, Position: 1}
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)
	f.holds.On("Update", mock.Anything, hold).Return(nil)
	f.holds.On("FindActiveByTitleOrdered", mock.Anything, int64(1)).Return([]models.Hold{}, nil)

	cancelled, err := f.svc.CancelHold(context.Background(), 1, "staff-1")

	assert.NoError(t, err)
	assert.Equal(t, models.HoldCancelled, cancelled.Status)
}

func TestCancelHold_AlreadySettled(t *testing.T) {
	f := newHoldFixture()
	hold := &models.Hold{ID: 1, UserID: "member-1", TitleID: 1, Status: models.HoldPickedUp}
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)

	_, err := f.svc.CancelHold(context.Background(), 1, "member-1")

	assert.ErrorIs(t, err, ErrHoldChangeNotAllowed)
}

func TestProcessNextHold_ReservesCopyForQueueHead(t *testing.T) {
	f := newHoldFixture()
	next := &models.Hold{ID: 2, UserID: "member-2", TitleID: 1, Status: models.HoldQueued, Position: 1}
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.copies.On("FindByID", mock.Anything, int64(10)).Return(&models.Copy{ID: 10, TitleID: 1, Status: models.CopyAvailable}, nil)
	f.holds.On("FindNextQueued", mock.Anything, int64(1)).Return(next, nil)
	f.copies.On("ClaimStatus", mock.Anything, int64(10), models.CopyAvailable, models.CopyReserved).Return(true, nil)
	f.holds.On("Update", mock.Anything, next).Return(nil)

	ready, err := f.svc.ProcessNextHold(context.Background(), 1, 10, "staff-1")

	assert.NoError(t, err)
	assert.Equal(t, models.HoldReady, ready.Status)
	if assert.NotNil(t, ready.CopyID) {
		assert.Equal(t, int64(10), *ready.CopyID)
	}
	if assert.NotNil(t, ready.PickupExpire) {
		assert.Equal(t, testNow.Add(models.PickupWindow), *ready.PickupExpire)
	}
	f.holds.AssertExpectations(t)
}

func TestProcessNextHold_MemberForbidden(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)

	_, err := f.svc.ProcessNextHold(context.Background(), 1, 10, "member-1")

	assert.ErrorIs(t, err, ErrAuthorizationFailed)
}

func TestProcessNextHold_CopyNotAvailable(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.copies.On("FindByID", mock.Anything, int64(10)).Return(&models.Copy{ID: 10, Status: models.CopyCheckedOut}, nil)

	_, err := f.svc.ProcessNextHold(context.Background(), 1, 10, "staff-1")

	assert.ErrorIs(t, err, ErrHoldChangeNotAllowed)
}

func TestProcessNextHold_EmptyQueue(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.copies.On("FindByID", mock.Anything, int64(10)).Return(&models.Copy{ID: 10, Status: models.CopyAvailable}, nil)
	f.holds.On("FindNextQueued", mock.Anything, int64(1)).Return(nil, nil)

	_, err := f.svc.ProcessNextHold(context.Background(), 1, 10, "staff-1")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcessNextHold_ClaimLost(t *testing.T) {
	f := newHoldFixture()
	next := &models.Hold{ID: 2, TitleID: 1, Status: models.HoldQueued, Position: 1}
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.copies.On("FindByID", mock.Anything, int64(10)).Return(&models.Copy{ID: 10, Status: models.CopyAvailable}, nil)
	f.holds.On("FindNextQueued", mock.Anything, int64(1)).Return(next, nil)
	f.copies.On("ClaimStatus", mock.Anything, int64(10), models.CopyAvailable, models.CopyReserved).Return(false, nil)

	_, err := f.svc.ProcessNextHold(context.Background(), 1, 10, "staff-1")

	assert.ErrorIs(t, err, ErrHoldChangeNotAllowed)
	f.holds.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCompleteHoldPickup_HandsCopyOver(t *testing.T) {
	f := newHoldFixture()
	copyID := int64(10)
	hold := &models.Hold{ID: 1, UserID: "member-1", TitleID: 1, CopyID: &copyID, Status: models.HoldReady, Position: 1}
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)
	f.copies.On("ClaimStatus", mock.Anything, copyID, models.CopyReserved, models.CopyCheckedOut).Return(true, nil)
	f.holds.On("Update", mock.Anything, hold).Return(nil)
	f.holds.On("FindActiveByTitleOrdered", mock.Anything, int64(1)).Return([]models.Hold{}, nil)

	picked, err := f.svc.CompleteHoldPickup(context.Background(), 1, "staff-1")

	assert.NoError(t, err)
	assert.Equal(t, models.HoldPickedUp, picked.Status)
	f.copies.AssertExpectations(t)
}

func TestCompleteHoldPickup_NotReady(t *testing.T) {
	f := newHoldFixture()
	hold := &models.Hold{ID: 1, UserID: "member-1", TitleID: 1, Status: models.HoldQueued}
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)

	_, err := f.svc.CompleteHoldPickup(context.Background(), 1, "staff-1")

	assert.ErrorIs(t, err, ErrHoldChangeNotAllowed)
}

// An expired pickup frees the copy and promotes the next member in line.
func TestProcessExpiredHolds_ExpiresAndPromotes(t *testing.T) {
	f := newHoldFixture()
	copyID := int64(10)
	expiredAt := testNow.Add(-time.Hour)
	expired := []models.Hold{{
		ID: 1, UserID: "member-1", TitleID: 1, CopyID: &copyID,
		Status: models.HoldReady, Position: 1, PickupExpire: &expiredAt,
	}}
	next := &models.Hold{ID: 2, UserID: "member-2", TitleID: 1, Status: models.HoldQueued, Position: 1}

	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.holds.On("FindExpired", mock.Anything, testNow).Return(expired, nil)
	f.copies.On("ClaimStatus", mock.Anything, copyID, models.CopyReserved, models.CopyAvailable).Return(true, nil)
	f.holds.On("Update", mock.Anything, mock.AnythingOfType("*models.Hold")).Return(nil)
	f.holds.On("FindActiveByTitleOrdered", mock.Anything, int64(1)).Return([]models.Hold{*next}, nil)
	f.copies.On("FindAvailableByTitle", mock.Anything, int64(1)).
		Return([]models.Copy{{ID: copyID, TitleID: 1, Status: models.CopyAvailable}}, nil)
	f.copies.On("FindByID", mock.Anything, copyID).Return(&models.Copy{ID: copyID, TitleID: 1, Status: models.CopyAvailable}, nil)
	f.holds.On("FindNextQueued", mock.Anything, int64(1)).Return(next, nil)
	f.copies.On("ClaimStatus", mock.Anything, copyID, models.CopyAvailable, models.CopyReserved).Return(true, nil)

	processed, err := f.svc.ProcessExpiredHolds(context.Background(), "staff-1")

	assert.NoError(t, err)
	assert.Len(t, processed, 1)
	assert.Equal(t, models.HoldExpired, processed[0].Status)
	assert.Equal(t, models.HoldReady, next.Status)
	f.holds.AssertExpectations(t)
}

// One hold failing to expire must not stop the sweep: the second hold is
// still expired and returned.
func TestProcessExpiredHolds_FailureSkipsToNext(t *testing.T) {
	f := newHoldFixture()
	copyOne, copyTwo := int64(10), int64(11)
	expiredAt := testNow.Add(-time.Hour)
	expired := []models.Hold{
		{ID: 1, UserID: "member-1", TitleID: 1, CopyID: &copyOne, Status: models.HoldReady, Position: 1, PickupExpire: &expiredAt},
		{ID: 2, UserID: "member-2", TitleID: 2, CopyID: &copyTwo, Status: models.HoldReady, Position: 1, PickupExpire: &expiredAt},
	}

	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.holds.On("FindExpired", mock.Anything, testNow).Return(expired, nil)
	f.copies.On("ClaimStatus", mock.Anything, copyOne, models.CopyReserved, models.CopyAvailable).
		Return(false, errors.New("deadlock detected"))
	f.copies.On("ClaimStatus", mock.Anything, copyTwo, models.CopyReserved, models.CopyAvailable).Return(true, nil)
	f.holds.On("Update", mock.Anything, mock.AnythingOfType("*models.Hold")).Return(nil)
	f.holds.On("FindActiveByTitleOrdered", mock.Anything, int64(2)).Return([]models.Hold{}, nil)
	f.copies.On("FindAvailableByTitle", mock.Anything, int64(2)).Return([]models.Copy{}, nil)

	processed, err := f.svc.ProcessExpiredHolds(context.Background(), "staff-1")

	assert.NoError(t, err)
	assert.Len(t, processed, 1)
	assert.Equal(t, int64(2), processed[0].ID)
	assert.Equal(t, models.HoldExpired, processed[0].Status)
	// The failed hold keeps its state for the next sweep.
	assert.Equal(t, models.HoldReady, expired[0].Status)
}

// A failed promotion of the next member is logged and skipped; the expired
// hold is still reported.
func TestProcessExpiredHolds_PromotionFailureDoesNotStallSweep(t *testing.T) {
	f := newHoldFixture()
	copyID := int64(10)
	expiredAt := testNow.Add(-time.Hour)
	expired := []models.Hold{{
		ID: 1, UserID: "member-1", TitleID: 1, CopyID: &copyID,
		Status: models.HoldReady, Position: 1, PickupExpire: &expiredAt,
	}}
	next := &models.Hold{ID: 2, UserID: "member-2", TitleID: 1, Status: models.HoldQueued, Position: 1}

	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.holds.On("FindExpired", mock.Anything, testNow).Return(expired, nil)
	f.copies.On("ClaimStatus", mock.Anything, copyID, models.CopyReserved, models.CopyAvailable).Return(true, nil)
	f.holds.On("Update", mock.Anything, mock.AnythingOfType("*models.Hold")).Return(nil)
	f.holds.On("FindActiveByTitleOrdered", mock.Anything, int64(1)).Return([]models.Hold{*next}, nil)
	f.copies.On("FindAvailableByTitle", mock.Anything, int64(1)).
		Return([]models.Copy{{ID: copyID, TitleID: 1, Status: models.CopyAvailable}}, nil)
	f.copies.On("FindByID", mock.Anything, copyID).Return(&models.Copy{ID: copyID, TitleID: 1, Status: models.CopyAvailable}, nil)
	f.holds.On("FindNextQueued", mock.Anything, int64(1)).Return(next, nil)
	f.copies.On("ClaimStatus", mock.Anything, copyID, models.CopyAvailable, models.CopyReserved).Return(false, nil)

	processed, err := f.svc.ProcessExpiredHolds(context.Background(), "staff-1")

	assert.NoError(t, err)
	assert.Len(t, processed, 1)
	assert.Equal(t, models.HoldExpired, processed[0].Status)
	assert.Equal(t, models.HoldQueued, next.Status)
}

func TestProcessExpiredHolds_NothingExpired(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "staff-1").Return(staffUser("staff-1"), nil)
	f.holds.On("FindExpired", mock.Anything, testNow).Return([]models.Hold{}, nil)

	processed, err := f.svc.ProcessExpiredHolds(context.Background(), "staff-1")

	assert.NoError(t, err)
	assert.Empty(t, processed)
}

func TestGetHoldPosition_Owner(t *testing.T) {
	f := newHoldFixture()
	hold := &models.Hold{ID: 1, UserID: "member-1", TitleID: 1, Status: models.HoldQueued, Position: 3}
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)

	pos, err := f.svc.GetHoldPosition(context.Background(), "member-1", 1)

	assert.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestGetHoldPosition_NotOwner(t *testing.T) {
	f := newHoldFixture()
	hold := &models.Hold{ID: 1, UserID: "member-2", TitleID: 1, Status: models.HoldQueued, Position: 3}
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.holds.On("FindByID", mock.Anything, int64(1)).Return(hold, nil)

	_, err := f.svc.GetHoldPosition(context.Background(), "member-1", 1)

	assert.ErrorIs(t, err, ErrAuthorizationFailed)
}

func TestCanPlaceHold_FalseWhenCopiesAvailable(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.titles.On("FindByID", mock.Anything, int64(1)).Return(visibleTitle(1), nil)
	f.holds.On("FindActiveByUserAndTitle", mock.Anything, "member-1", int64(1)).Return(nil, nil)
	f.copies.On("FindAvailableByTitle", mock.Anything, int64(1)).
		Return([]models.Copy{{ID: 10, Status: models.CopyAvailable}}, nil)

	ok, err := f.svc.CanPlaceHold(context.Background(), "member-1", "member-1", 1)

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCanPlaceHold_TrueWhenNoneAvailable(t *testing.T) {
	f := newHoldFixture()
	f.users.On("FindByID", mock.Anything, "member-1").Return(activeMember("member-1"), nil)
	f.titles.On("FindByID", mock.Anything, int64(1)).Return(visibleTitle(1), nil)
	f.holds.On("FindActiveByUserAndTitle", mock.Anything, "member-1", int64(1)).Return(nil, nil)
	f.copies.On("FindAvailableByTitle", mock.Anything, int64(1)).Return([]models.Copy{}, nil)

	ok, err := f.svc.CanPlaceHold(context.Background(), "member-1", "member-1", 1)

	assert.NoError(t, err)
	assert.True(t, ok)
}
