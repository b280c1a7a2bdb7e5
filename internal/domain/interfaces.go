package domain

import (
	"context"
	"time"

	"parkhive/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	CreateSpace(ctx context.Context, space *models.ParkingSpace) error
	GetSpace(ctx context.Context, id int64) (*models.ParkingSpace, error)
	GetSpacesByOwner(ctx context.Context, ownerID int64) ([]*models.ParkingSpace, error)
	GetActiveSpaces(ctx context.Context) ([]*models.ParkingSpace, error)
	GetSpacesByCells(ctx context.Context, cells []string) ([]*models.ParkingSpace, error)
	DeactivateSpace(ctx context.Context, id int64) error
	SyncSpaces(ctx context.Context, spaces []models.ParkingSpace) error
	GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error)

	CreateRequest(ctx context.Context, request *models.ParkingRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ParkingRequest, error)
	UpdateRequestStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error
	StartRequestWithVersion(ctx context.Context, id, fromVersion int64, startTime time.Time) error
	EndRequestWithVersion(ctx context.Context, id, fromVersion int64, endTime time.Time, totalAmount float64) error
	GetUserRequests(ctx context.Context, userID int64) ([]*models.ParkingRequest, error)
	GetSpaceRequests(ctx context.Context, spaceID int64) ([]*models.ParkingRequest, error)
	GetOwnerRequests(ctx context.Context, ownerID int64) ([]*models.ParkingRequest, error)
	GetRequestsByDateRange(ctx context.Context, ownerID int64, start, end time.Time) ([]*models.ParkingRequest, error)
	CountOpenRequests(ctx context.Context, spaceID int64) (int64, error)
	EarningsBySpace(ctx context.Context, ownerID int64) (map[int64]float64, error)

	GetWallet(ctx context.Context, userID int64) (*models.Wallet, error)
	CreditWallet(ctx context.Context, userID int64, amount float64) error
	DebitWallet(ctx context.Context, userID int64, amount float64) error
	PayForRequest(ctx context.Context, userID, requestID int64) (float64, error)

	CreateOrUpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserPhone(ctx context.Context, id int64, phone string) error
}

// CacheRepository keeps hot read paths off sqlite: occupancy snapshots
// and per-user action rate limits.
type CacheRepository interface {
	GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error)
	SetOccupancy(ctx context.Context, occupancy *models.Occupancy, ttl time.Duration) error
	InvalidateOccupancy(ctx context.Context, spaceID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, requestID int64, request *models.ParkingRequest, status string) error
}

type SpaceService interface {
	RegisterSpace(ctx context.Context, space *models.ParkingSpace) error
	GetSpace(ctx context.Context, id int64) (*models.ParkingSpace, error)
	GetOwnerSpaces(ctx context.Context, ownerID int64) ([]*models.ParkingSpace, error)
	FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.NearbySpace, error)
	GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error)
	DeactivateSpace(ctx context.Context, id, actorID int64) error
}

type RequestService interface {
	CreateRequest(ctx context.Context, userID, spaceID int64) (*models.ParkingRequest, error)
	ApproveRequest(ctx context.Context, requestID, version, actorID int64) error
	DenyRequest(ctx context.Context, requestID, version, actorID int64) error
	RequestEnd(ctx context.Context, requestID, version, actorID int64) error
	ConfirmEnd(ctx context.Context, requestID, version, actorID int64) (*models.ParkingRequest, error)
	GetRequest(ctx context.Context, id int64) (*models.ParkingRequest, error)
	GetUserRequests(ctx context.Context, userID int64) ([]*models.ParkingRequest, error)
	GetOwnerRequests(ctx context.Context, ownerID int64) ([]*models.ParkingRequest, error)
	OwnerEarnings(ctx context.Context, ownerID int64) (map[int64]float64, error)
}

type WalletService interface {
	Credit(ctx context.Context, userID int64, amount float64) error
	Debit(ctx context.Context, userID int64, amount float64) error
	GetWallet(ctx context.Context, userID int64) (*models.Wallet, error)
	Pay(ctx context.Context, userID, requestID int64) (float64, error)
}

type UserService interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserPhone(ctx context.Context, id int64, phone string) error
}
