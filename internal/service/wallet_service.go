package service

import (
	"context"

	"parkhive/internal/domain"
	"parkhive/internal/events"
	"parkhive/internal/models"

	"github.com/rs/zerolog"
)

type WalletService struct {
	repo         domain.Repository
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	logger       *zerolog.Logger
}

func NewWalletService(repo domain.Repository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, logger *zerolog.Logger) *WalletService {
	return &WalletService{
		repo:         repo,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		logger:       logger,
	}
}

// Credit tops up the user's wallet, creating it on first use.
func (s *WalletService) Credit(ctx context.Context, userID int64, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.CreditWallet(ctx, userID, amount)
}

// Debit withdraws funds from the user's wallet. The balance floor is
// enforced by the conditional update in the persistence layer.
func (s *WalletService) Debit(ctx context.Context, userID int64, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.repo.DebitWallet(ctx, userID, amount)
}

func (s *WalletService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	return s.repo.GetWallet(ctx, userID)
}

// Pay settles an ended session from the requester's wallet. The debit
// and the paid flag flip commit together or not at all.
func (s *WalletService) Pay(ctx context.Context, userID, requestID int64) (float64, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return 0, err
	}
	if request.UserID != userID {
		return 0, ErrNotRequester
	}

	amount, err := s.repo.PayForRequest(ctx, userID, requestID)
	if err != nil {
		return 0, err
	}

	paid, err := s.repo.GetRequest(ctx, requestID)
	if err == nil {
		s.publishPaid(paid, userID)
		s.enqueueSync(ctx, paid)
	}

	return amount, nil
}

func (s *WalletService) publishPaid(request *models.ParkingRequest, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.RequestEventPayload{
		RequestID:   request.ID,
		SpaceID:     request.SpaceID,
		SpaceName:   request.SpaceName,
		UserID:      request.UserID,
		Status:      request.Status,
		TotalAmount: request.TotalAmount.Float64,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(events.EventRequestPaid, payload); err != nil {
		s.logger.Error().Err(err).Int64("request_id", request.ID).Msg("publish event error")
	}
}

func (s *WalletService) enqueueSync(ctx context.Context, request *models.ParkingRequest) {
	if s.sheetsWorker == nil {
		return
	}
	if err := s.sheetsWorker.EnqueueTask(ctx, "upsert", request.ID, request, ""); err != nil {
		s.logger.Error().Err(err).Int64("request_id", request.ID).Msg("sheets enqueue error")
	}
}
