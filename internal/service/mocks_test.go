package service

import (
	"context"
	"time"

	"parkhive/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateSpace(ctx context.Context, s *models.ParkingSpace) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) GetSpace(ctx context.Context, id int64) (*models.ParkingSpace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingSpace), args.Error(1)
}
func (m *mockRepo) GetSpacesByOwner(ctx context.Context, id int64) ([]*models.ParkingSpace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingSpace), args.Error(1)
}
func (m *mockRepo) GetActiveSpaces(ctx context.Context) ([]*models.ParkingSpace, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingSpace), args.Error(1)
}
func (m *mockRepo) GetSpacesByCells(ctx context.Context, cells []string) ([]*models.ParkingSpace, error) {
	args := m.Called(ctx, cells)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingSpace), args.Error(1)
}
func (m *mockRepo) DeactivateSpace(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) SyncSpaces(ctx context.Context, spaces []models.ParkingSpace) error {
	return m.Called(ctx, spaces).Error(0)
}
func (m *mockRepo) GetOccupancy(ctx context.Context, id int64) (*models.Occupancy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Occupancy), args.Error(1)
}
func (m *mockRepo) CreateRequest(ctx context.Context, r *models.ParkingRequest) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRepo) GetRequest(ctx context.Context, id int64) (*models.ParkingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ParkingRequest), args.Error(1)
}
func (m *mockRepo) UpdateRequestStatusWithVersion(ctx context.Context, id, v int64, s string) error {
	return m.Called(ctx, id, v, s).Error(0)
}
func (m *mockRepo) StartRequestWithVersion(ctx context.Context, id, v int64, st time.Time) error {
	return m.Called(ctx, id, v, st).Error(0)
}
func (m *mockRepo) EndRequestWithVersion(ctx context.Context, id, v int64, et time.Time, amount float64) error {
	return m.Called(ctx, id, v, et, amount).Error(0)
}
func (m *mockRepo) GetUserRequests(ctx context.Context, id int64) ([]*models.ParkingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingRequest), args.Error(1)
}
func (m *mockRepo) GetSpaceRequests(ctx context.Context, id int64) ([]*models.ParkingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingRequest), args.Error(1)
}
func (m *mockRepo) GetOwnerRequests(ctx context.Context, id int64) ([]*models.ParkingRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingRequest), args.Error(1)
}
func (m *mockRepo) GetRequestsByDateRange(ctx context.Context, id int64, s, e time.Time) ([]*models.ParkingRequest, error) {
	args := m.Called(ctx, id, s, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParkingRequest), args.Error(1)
}
func (m *mockRepo) CountOpenRequests(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockRepo) EarningsBySpace(ctx context.Context, id int64) (map[int64]float64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]float64), args.Error(1)
}
func (m *mockRepo) GetWallet(ctx context.Context, id int64) (*models.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}
func (m *mockRepo) CreditWallet(ctx context.Context, id int64, amount float64) error {
	return m.Called(ctx, id, amount).Error(0)
}
func (m *mockRepo) DebitWallet(ctx context.Context, id int64, amount float64) error {
	return m.Called(ctx, id, amount).Error(0)
}
func (m *mockRepo) PayForRequest(ctx context.Context, userID, requestID int64) (float64, error) {
	args := m.Called(ctx, userID, requestID)
	return args.Get(0).(float64), args.Error(1)
}
func (m *mockRepo) CreateOrUpdateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *mockRepo) UpdateUserPhone(ctx context.Context, id int64, p string) error {
	return m.Called(ctx, id, p).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, tt string, rid int64, r *models.ParkingRequest, s string) error {
	return m.Called(ctx, tt, rid, r, s).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetOccupancy(ctx context.Context, id int64) (*models.Occupancy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Occupancy), args.Error(1)
}
func (m *mockCache) SetOccupancy(ctx context.Context, o *models.Occupancy, ttl time.Duration) error {
	return m.Called(ctx, o, ttl).Error(0)
}
func (m *mockCache) InvalidateOccupancy(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockCache) CheckRateLimit(ctx context.Context, id int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, id, limit, window)
	return args.Bool(0), args.Error(1)
}
