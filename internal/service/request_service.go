package service

import (
	"context"
	"time"

	"parkhive/internal/billing"
	"parkhive/internal/domain"
	"parkhive/internal/events"
	"parkhive/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo         domain.Repository
	cache        domain.CacheRepository
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	logger       *zerolog.Logger
}

func NewRequestService(repo domain.Repository, cache domain.CacheRepository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		repo:         repo,
		cache:        cache,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		logger:       logger,
	}
}

// CreateRequest files a pending request by a driver against a space.
// Owners cannot request their own space and a user may hold only one
// open request per space.
func (s *RequestService) CreateRequest(ctx context.Context, userID, spaceID int64) (*models.ParkingRequest, error) {
	space, err := s.repo.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if !space.IsActive {
		return nil, ErrSpaceInactive
	}
	if space.OwnerID == userID {
		return nil, ErrSelfRequest
	}

	request := &models.ParkingRequest{
		SpaceID:   spaceID,
		SpaceName: space.Name,
		UserID:    userID,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.invalidateOccupancy(ctx, spaceID)
	s.publishEvent(ctx, events.EventRequestCreated, request, space.OwnerID, userID)
	s.enqueueSync(ctx, request, "upsert")

	return request, nil
}

// ApproveRequest moves a pending request to active and stamps the
// session start. Only the space owner may approve.
func (s *RequestService) ApproveRequest(ctx context.Context, requestID, version, actorID int64) error {
	request, space, err := s.getRequestForOwner(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if request.Status != models.StatusPending {
		return ErrInvalidTransition
	}

	if err := s.repo.StartRequestWithVersion(ctx, requestID, version, time.Now()); err != nil {
		return err
	}

	s.invalidateOccupancy(ctx, request.SpaceID)
	s.afterTransition(ctx, requestID, events.EventRequestApproved, space.OwnerID, actorID)

	return nil
}

// DenyRequest cancels a pending request. Only the space owner may deny.
func (s *RequestService) DenyRequest(ctx context.Context, requestID, version, actorID int64) error {
	request, space, err := s.getRequestForOwner(ctx, requestID, actorID)
	if err != nil {
		return err
	}
	if request.Status != models.StatusPending {
		return ErrInvalidTransition
	}

	if err := s.repo.UpdateRequestStatusWithVersion(ctx, requestID, version, models.StatusCancelled); err != nil {
		return err
	}

	s.invalidateOccupancy(ctx, request.SpaceID)
	s.afterTransition(ctx, requestID, events.EventRequestDenied, space.OwnerID, actorID)

	return nil
}

// RequestEnd asks to finish an active session. Either side of the
// session may ask: the driver who filed the request or the space
// owner.
func (s *RequestService) RequestEnd(ctx context.Context, requestID, version, actorID int64) error {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	space, err := s.repo.GetSpace(ctx, request.SpaceID)
	if err != nil {
		return err
	}
	if request.UserID != actorID && space.OwnerID != actorID {
		return ErrNotRequester
	}
	if request.Status != models.StatusActive {
		return ErrInvalidTransition
	}

	if err := s.repo.UpdateRequestStatusWithVersion(ctx, requestID, version, models.StatusEndRequested); err != nil {
		return err
	}

	s.afterTransition(ctx, requestID, events.EventRequestEndRequested, space.OwnerID, actorID)

	return nil
}

// ConfirmEnd settles an end-requested session: the owner confirms, the
// end time is stamped and the total is billed at the space's hourly
// rate with started hours rounded up.
func (s *RequestService) ConfirmEnd(ctx context.Context, requestID, version, actorID int64) (*models.ParkingRequest, error) {
	request, space, err := s.getRequestForOwner(ctx, requestID, actorID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusEndRequested {
		return nil, ErrInvalidTransition
	}
	if !request.StartTime.Valid {
		return nil, ErrInvalidTransition
	}

	endTime := time.Now()
	bill, err := billing.Compute(request.StartTime.Time, endTime, space.HourlyRate)
	if err != nil {
		return nil, err
	}

	if err := s.repo.EndRequestWithVersion(ctx, requestID, version, endTime, bill.Amount); err != nil {
		return nil, err
	}

	s.invalidateOccupancy(ctx, request.SpaceID)

	ended, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.EventRequestEnded, ended, space.OwnerID, actorID)
	s.enqueueSync(ctx, ended, "update_status")

	return ended, nil
}

func (s *RequestService) GetRequest(ctx context.Context, id int64) (*models.ParkingRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *RequestService) GetUserRequests(ctx context.Context, userID int64) ([]*models.ParkingRequest, error) {
	return s.repo.GetUserRequests(ctx, userID)
}

func (s *RequestService) GetOwnerRequests(ctx context.Context, ownerID int64) ([]*models.ParkingRequest, error) {
	return s.repo.GetOwnerRequests(ctx, ownerID)
}

func (s *RequestService) OwnerEarnings(ctx context.Context, ownerID int64) (map[int64]float64, error) {
	return s.repo.EarningsBySpace(ctx, ownerID)
}

// getRequestForOwner loads the request and its space and verifies the
// actor owns the space.
func (s *RequestService) getRequestForOwner(ctx context.Context, requestID, actorID int64) (*models.ParkingRequest, *models.ParkingSpace, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	space, err := s.repo.GetSpace(ctx, request.SpaceID)
	if err != nil {
		return nil, nil, err
	}
	if space.OwnerID != actorID {
		return nil, nil, ErrNotOwner
	}

	return request, space, nil
}

func (s *RequestService) afterTransition(ctx context.Context, requestID int64, eventType string, ownerID, actorID int64) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		s.logger.Error().Err(err).Int64("request_id", requestID).Msg("reload after transition error")
		return
	}

	s.publishEvent(ctx, eventType, request, ownerID, actorID)
	s.enqueueSync(ctx, request, "update_status")
}

func (s *RequestService) invalidateOccupancy(ctx context.Context, spaceID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOccupancy(ctx, spaceID); err != nil {
		s.logger.Error().Err(err).Int64("space_id", spaceID).Msg("occupancy invalidation error")
	}
}

func (s *RequestService) publishEvent(ctx context.Context, eventType string, request *models.ParkingRequest, ownerID, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.RequestEventPayload{
		RequestID:   request.ID,
		SpaceID:     request.SpaceID,
		SpaceName:   request.SpaceName,
		OwnerID:     ownerID,
		UserID:      request.UserID,
		Status:      request.Status,
		TotalAmount: request.TotalAmount.Float64,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("request_id", request.ID).Msg("publish event error")
	}
}

func (s *RequestService) enqueueSync(ctx context.Context, request *models.ParkingRequest, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = request.Status
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, request.ID, request, status); err != nil {
		s.logger.Error().Err(err).Int64("request_id", request.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
