package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"flexreviews/internal/domain"
)

type PlacesService struct {
	client   domain.PlacesClient // nil when no API key is configured
	cache    domain.Cache        // optional
	cacheTTL time.Duration
}

func NewPlacesService(c domain.PlacesClient, cache domain.Cache, ttl time.Duration) *PlacesService {
	return &PlacesService{client: c, cache: cache, cacheTTL: ttl}
}

// Summary never fails: any upstream problem yields no reviews and no rating.
func (s *PlacesService) Summary(ctx context.Context, placeID string) domain.PlaceSummary {
	key := fmt.Sprintf("place:%s", placeID)
	if s.cache != nil {
		var cached domain.PlaceSummary
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return limitSummary(cached)
		} else if err != nil {
			log.Warn().Err(err).Str("place_id", placeID).Msg("place cache read failed")
		}
	}

	if s.client == nil {
		return emptySummary()
	}
	ps, err := s.client.GetPlace(ctx, placeID)
	if err != nil {
		log.Warn().Err(err).Str("place_id", placeID).Msg("place details unavailable")
		return emptySummary()
	}
	ps = limitSummary(ps)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ps, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("place_id", placeID).Msg("place cache write failed")
		}
	}
	return ps
}

// Refresh drops any cached summary and fetches a fresh one; used by the prefetcher.
func (s *PlacesService) Refresh(ctx context.Context, placeID string) (domain.PlaceSummary, error) {
	if s.client == nil {
		return emptySummary(), domain.ErrUnavailable
	}
	key := fmt.Sprintf("place:%s", placeID)
	if s.cache != nil {
		_ = s.cache.Del(ctx, key)
	}
	ps, err := s.client.GetPlace(ctx, placeID)
	if err != nil {
		return emptySummary(), err
	}
	ps = limitSummary(ps)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ps, int(s.cacheTTL.Seconds())); err != nil {
			return ps, err
		}
	}
	return ps, nil
}

func limitSummary(ps domain.PlaceSummary) domain.PlaceSummary {
	out := domain.PlaceSummary{Rating: ps.Rating, Reviews: []domain.ExternalReview{}}
	n := min(len(ps.Reviews), domain.MaxExternalReviews)
	out.Reviews = append(out.Reviews, ps.Reviews[:n]...)
	return out
}

func emptySummary() domain.PlaceSummary {
	return domain.PlaceSummary{Reviews: []domain.ExternalReview{}}
}
