package service

import (
	"context"
	"sort"
	"time"

	"parkhive/internal/billing"
	"parkhive/internal/domain"
	"parkhive/internal/geo"
	"parkhive/internal/models"

	"github.com/rs/zerolog"
)

type SpaceService struct {
	repo            domain.Repository
	cache           domain.CacheRepository
	defaultRadiusKm float64
	maxResults      int
	logger          *zerolog.Logger
}

func NewSpaceService(repo domain.Repository, cache domain.CacheRepository, defaultRadiusKm float64, maxResults int, logger *zerolog.Logger) *SpaceService {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = models.DefaultNearbyRadiusKm
	}
	if maxResults <= 0 {
		maxResults = 50
	}
	return &SpaceService{
		repo:            repo,
		cache:           cache,
		defaultRadiusKm: defaultRadiusKm,
		maxResults:      maxResults,
		logger:          logger,
	}
}

func (s *SpaceService) RegisterSpace(ctx context.Context, space *models.ParkingSpace) error {
	if space.HourlyRate <= 0 {
		return billing.ErrInvalidRate
	}
	if space.TotalSpots <= 0 {
		space.TotalSpots = 1
	}
	return s.repo.CreateSpace(ctx, space)
}

func (s *SpaceService) GetSpace(ctx context.Context, id int64) (*models.ParkingSpace, error) {
	return s.repo.GetSpace(ctx, id)
}

func (s *SpaceService) GetOwnerSpaces(ctx context.Context, ownerID int64) ([]*models.ParkingSpace, error) {
	return s.repo.GetSpacesByOwner(ctx, ownerID)
}

// FindNearby returns active spaces within radiusKm of the point,
// closest first. Candidates come from the geohash cell of the point and
// its neighbors, then get refined by exact distance.
func (s *SpaceService) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.NearbySpace, error) {
	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	candidates, err := s.repo.GetSpacesByCells(ctx, geo.SearchCells(lat, lon, radiusKm))
	if err != nil {
		return nil, err
	}

	var nearby []*models.NearbySpace
	for _, space := range candidates {
		distance := geo.DistanceKm(lat, lon, space.Latitude, space.Longitude)
		if distance > radiusKm {
			continue
		}
		nearby = append(nearby, &models.NearbySpace{
			ParkingSpace: *space,
			DistanceKm:   distance,
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

// GetOccupancy serves the occupancy snapshot cache-first, recounting
// from the database on a miss.
func (s *SpaceService) GetOccupancy(ctx context.Context, spaceID int64) (*models.Occupancy, error) {
	if s.cache != nil {
		cached, err := s.cache.GetOccupancy(ctx, spaceID)
		if err != nil {
			s.logger.Error().Err(err).Int64("space_id", spaceID).Msg("occupancy cache read error")
		} else if cached != nil {
			return cached, nil
		}
	}

	occupancy, err := s.repo.GetOccupancy(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		ttl := models.OccupancyCacheTTL * time.Second
		if err := s.cache.SetOccupancy(ctx, occupancy, ttl); err != nil {
			s.logger.Error().Err(err).Int64("space_id", spaceID).Msg("occupancy cache write error")
		}
	}

	return occupancy, nil
}

func (s *SpaceService) DeactivateSpace(ctx context.Context, id, actorID int64) error {
	space, err := s.repo.GetSpace(ctx, id)
	if err != nil {
		return err
	}
	if space.OwnerID != actorID {
		return ErrNotOwner
	}
	return s.repo.DeactivateSpace(ctx, id)
}
