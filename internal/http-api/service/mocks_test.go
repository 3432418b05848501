package service

import (
	"context"
	"time"

	"circdesk/internal/http-api/models"

	"github.com/stretchr/testify/mock"
)

// fixedClock pins "now" for deterministic timestamp math.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// fakeTxRunner runs the body without a real transaction.
type fakeTxRunner struct{}

func (fakeTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockTitleRepository mocks the TitleRepository interface
type MockTitleRepository struct {
	mock.Mock
}

func (m *MockTitleRepository) Create(ctx context.Context, title *models.Title) error {
	args := m.Called(ctx, title)
	return args.Error(0)
}

func (m *MockTitleRepository) FindByID(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleRepository) FindByISBN(ctx context.Context, isbn string) (*models.Title, error) {
	args := m.Called(ctx, isbn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Title), args.Error(1)
}

func (m *MockTitleRepository) FindAll(ctx context.Context, visibleOnly bool) ([]models.Title, error) {
	args := m.Called(ctx, visibleOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Title), args.Error(1)
}

func (m *MockTitleRepository) Update(ctx context.Context, title *models.Title) error {
	args := m.Called(ctx, title)
	return args.Error(0)
}

func (m *MockTitleRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockCopyRepository mocks the CopyRepository interface
type MockCopyRepository struct {
	mock.Mock
}

func (m *MockCopyRepository) Create(ctx context.Context, copy *models.Copy) error {
	args := m.Called(ctx, copy)
	return args.Error(0)
}

func (m *MockCopyRepository) FindByID(ctx context.Context, id int64) (*models.Copy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Copy), args.Error(1)
}

func (m *MockCopyRepository) FindByBarcode(ctx context.Context, barcode string) (*models.Copy, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Copy), args.Error(1)
}

func (m *MockCopyRepository) FindByTitle(ctx context.Context, titleID int64) ([]models.Copy, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Copy), args.Error(1)
}

func (m *MockCopyRepository) FindAvailableByTitle(ctx context.Context, titleID int64) ([]models.Copy, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Copy), args.Error(1)
}

func (m *MockCopyRepository) Update(ctx context.Context, copy *models.Copy) error {
	args := m.Called(ctx, copy)
	return args.Error(0)
}

func (m *MockCopyRepository) ClaimStatus(ctx context.Context, copyID int64, from, to models.CopyStatus) (bool, error) {
	args := m.Called(ctx, copyID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockCopyRepository) SummarizeByTitle(ctx context.Context, titleID int64) (*models.AvailabilitySummary, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailabilitySummary), args.Error(1)
}

func (m *MockCopyRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockLoanRepository mocks the LoanRepository interface
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) FindByID(ctx context.Context, id int64) (*models.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindByUser(ctx context.Context, userID string) ([]models.Loan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindActiveByUser(ctx context.Context, userID string) ([]models.Loan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *MockLoanRepository) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLoanRepository) FindByCopy(ctx context.Context, copyID int64) ([]models.Loan, error) {
	args := m.Called(ctx, copyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindByCopyIDs(ctx context.Context, copyIDs []int64) ([]models.Loan, error) {
	args := m.Called(ctx, copyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindActiveByCopy(ctx context.Context, copyID int64) (*models.Loan, error) {
	args := m.Called(ctx, copyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

// MockHoldRepository mocks the HoldRepository interface
type MockHoldRepository struct {
	mock.Mock
}

func (m *MockHoldRepository) Create(ctx context.Context, hold *models.Hold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockHoldRepository) FindByID(ctx context.Context, id int64) (*models.Hold, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hold), args.Error(1)
}

func (m *MockHoldRepository) FindByUser(ctx context.Context, userID string) ([]models.Hold, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Hold), args.Error(1)
}

func (m *MockHoldRepository) FindByTitle(ctx context.Context, titleID int64) ([]models.Hold, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Hold), args.Error(1)
}

func (m *MockHoldRepository) FindActiveByTitleOrdered(ctx context.Context, titleID int64) ([]models.Hold, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Hold), args.Error(1)
}

func (m *MockHoldRepository) FindActiveByUserAndTitle(ctx context.Context, userID string, titleID int64) (*models.Hold, error) {
	args := m.Called(ctx, userID, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hold), args.Error(1)
}

func (m *MockHoldRepository) MaxActivePosition(ctx context.Context, titleID int64) (int, error) {
	args := m.Called(ctx, titleID)
	return args.Int(0), args.Error(1)
}

func (m *MockHoldRepository) FindNextQueued(ctx context.Context, titleID int64) (*models.Hold, error) {
	args := m.Called(ctx, titleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hold), args.Error(1)
}

func (m *MockHoldRepository) FindExpired(ctx context.Context, now time.Time) ([]models.Hold, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Hold), args.Error(1)
}

func (m *MockHoldRepository) Update(ctx context.Context, hold *models.Hold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

// MockFineRepository mocks the FineRepository interface
type MockFineRepository struct {
	mock.Mock
}

func (m *MockFineRepository) Create(ctx context.Context, fine *models.Fine) error {
	args := m.Called(ctx, fine)
	return args.Error(0)
}

func (m *MockFineRepository) FindByID(ctx context.Context, id int64) (*models.Fine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Fine), args.Error(1)
}

func (m *MockFineRepository) FindByUser(ctx context.Context, userID string) ([]models.Fine, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Fine), args.Error(1)
}

func (m *MockFineRepository) FindByUserAndStatus(ctx context.Context, userID string, status models.FineStatus) ([]models.Fine, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Fine), args.Error(1)
}

func (m *MockFineRepository) SumUnpaidCents(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFineRepository) Update(ctx context.Context, fine *models.Fine) error {
	args := m.Called(ctx, fine)
	return args.Error(0)
}
