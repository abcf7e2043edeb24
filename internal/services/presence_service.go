package services

import (
	"context"
	"sort"

	"pathgo/internal/models"
	"pathgo/internal/repositories/interfaces"
	"pathgo/internal/utils"
	"pathgo/pkg/cache"
	"pathgo/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const driverGeoKey = "geo:drivers"

// PresenceService tracks which drivers are online and where. Locations
// are written to both the Redis GEO set (fast radius queries during
// dispatch) and the partner document (durable, feeds the 2dsphere
// index when Redis is cold).
type PresenceService interface {
	GoOnline(ctx context.Context, partnerID primitive.ObjectID) error
	GoOffline(ctx context.Context, partnerID primitive.ObjectID) error
	UpdateLocation(ctx context.Context, partnerID primitive.ObjectID, loc models.Location) error
	// NearestAvailable returns available drivers ordered by distance
	// from the pickup point.
	NearestAvailable(ctx context.Context, pickup models.Location, radiusKM float64, limit int) ([]*models.Partner, error)
}

type presenceService struct {
	partnerRepo interfaces.PartnerRepository
	cache       *cache.RedisCache
	logger      *logger.Logger
}

func NewPresenceService(partnerRepo interfaces.PartnerRepository, cache *cache.RedisCache, logger *logger.Logger) PresenceService {
	return &presenceService{partnerRepo: partnerRepo, cache: cache, logger: logger}
}

func (s *presenceService) GoOnline(ctx context.Context, partnerID primitive.ObjectID) error {
	return s.partnerRepo.SetOnline(ctx, partnerID, true)
}

func (s *presenceService) GoOffline(ctx context.Context, partnerID primitive.ObjectID) error {
	if err := s.cache.GeoRemove(ctx, driverGeoKey, partnerID.Hex()); err != nil {
		s.logger.WithError(err).Warn("failed to drop driver from geo set")
	}
	return s.partnerRepo.SetOnline(ctx, partnerID, false)
}

func (s *presenceService) UpdateLocation(ctx context.Context, partnerID primitive.ObjectID, loc models.Location) error {
	if loc.IsZero() {
		return nil
	}

	if err := s.cache.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      partnerID.Hex(),
		Longitude: loc.Longitude(),
		Latitude:  loc.Latitude(),
	}); err != nil {
		s.logger.WithError(err).Warn("failed to update driver geo set")
	}

	return s.partnerRepo.UpdateLocation(ctx, partnerID, loc)
}

func (s *presenceService) NearestAvailable(ctx context.Context, pickup models.Location, radiusKM float64, limit int) ([]*models.Partner, error) {
	// Redis gives the candidate set; Mongo owns the truth about
	// availability, so candidates are re-checked before use.
	locations, err := s.cache.GeoRadius(ctx, driverGeoKey, pickup.Longitude(), pickup.Latitude(), &redis.GeoRadiusQuery{
		Radius:    radiusKM,
		Unit:      "km",
		Sort:      "ASC",
		Count:     limit * 2,
		WithCoord: true,
	})
	if err != nil {
		s.logger.WithError(err).Warn("redis geo radius failed, falling back to mongo")
		return s.partnerRepo.FindNearbyAvailable(ctx, pickup, radiusKM, limit)
	}
	if len(locations) == 0 {
		return s.partnerRepo.FindNearbyAvailable(ctx, pickup, radiusKM, limit)
	}

	partners := make([]*models.Partner, 0, limit)
	for _, loc := range locations {
		id, err := primitive.ObjectIDFromHex(loc.Name)
		if err != nil {
			continue
		}
		partner, err := s.partnerRepo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if !partner.IsOnline || !partner.IsAvailable || partner.Status != models.PartnerStatusApproved {
			continue
		}
		partners = append(partners, partner)
		if len(partners) == limit {
			break
		}
	}

	sort.SliceStable(partners, func(i, j int) bool {
		di := utils.HaversineKM(pickup.Latitude(), pickup.Longitude(),
			partners[i].LastLocation.Latitude(), partners[i].LastLocation.Longitude())
		dj := utils.HaversineKM(pickup.Latitude(), pickup.Longitude(),
			partners[j].LastLocation.Latitude(), partners[j].LastLocation.Longitude())
		return di < dj
	})

	return partners, nil
}
