package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"flexreviews/internal/adapters/observability"
	"flexreviews/internal/domain"
)

// Source tells where a fetch cycle got its reviews from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

type ReviewService struct {
	channel domain.ChannelClient // nil when no credentials are configured
	store   domain.SnapshotStore
}

func NewReviewService(c domain.ChannelClient, store domain.SnapshotStore) *ReviewService {
	return &ReviewService{channel: c, store: store}
}

// Reviews runs one fetch cycle: live channel data when usable, otherwise the
// snapshot; then approval annotation from the snapshot and normalization.
func (s *ReviewService) Reviews(ctx context.Context) ([]domain.NormalizedReview, Source, error) {
	live, reason := s.fetchLive(ctx)

	snap, serr := s.store.Load(ctx)

	var raw []domain.RawChannelReview
	src := SourceLive
	switch {
	case live != nil:
		if serr != nil {
			log.Warn().Err(serr).Msg("snapshot unavailable; serving live reviews without stored approvals")
			raw = live
		} else {
			raw = annotate(live, approvals(snap))
		}
	default:
		src = SourceFallback
		observability.ObserveFallback(reason)
		if serr != nil {
			return nil, src, fmt.Errorf("load fallback snapshot: %w", serr)
		}
		raw = snap.Result
	}

	out, dropped := NormalizeReviews(raw)
	for _, d := range dropped {
		log.Warn().Int64("id", d.ID).Err(d.Err).Str("source", string(src)).Msg("review dropped during normalization")
	}
	return out, src, nil
}

// Query runs a fetch cycle and applies filters and sort order.
func (s *ReviewService) Query(ctx context.Context, f Filters, order SortOrder) ([]domain.NormalizedReview, error) {
	all, _, err := s.Reviews(ctx)
	if err != nil {
		return nil, err
	}
	return Query(all, f, order), nil
}

func (s *ReviewService) Stats(ctx context.Context) ([]domain.PropertyAggregate, error) {
	all, _, err := s.Reviews(ctx)
	if err != nil {
		return nil, err
	}
	return Aggregate(all), nil
}

func (s *ReviewService) Facets(ctx context.Context) (domain.Facets, error) {
	all, _, err := s.Reviews(ctx)
	if err != nil {
		return domain.Facets{}, err
	}
	return CollectFacets(all), nil
}

// fetchLive returns nil plus a fallback reason when the channel cannot be used.
// A successful but empty response counts as unusable.
func (s *ReviewService) fetchLive(ctx context.Context) ([]domain.RawChannelReview, string) {
	if s.channel == nil {
		return nil, "not_configured"
	}
	live, err := s.channel.FetchReviews(ctx)
	if err == nil && len(live) == 0 {
		err = domain.ErrEmptyResult
	}
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, domain.ErrEmptyResult):
			reason = "empty"
		case errors.Is(err, domain.ErrUnauthorized):
			reason = "unauthorized"
		case errors.Is(err, context.DeadlineExceeded):
			reason = "timeout"
		}
		log.Warn().Err(err).Str("reason", reason).Msg("channel fetch unusable; using fallback snapshot")
		return nil, reason
	}
	return live, ""
}

// annotate copies live records and applies stored approval flags by id.
func annotate(live []domain.RawChannelReview, flags map[int64]bool) []domain.RawChannelReview {
	out := make([]domain.RawChannelReview, len(live))
	copy(out, live)
	for i := range out {
		if v, ok := flags[out[i].ID]; ok {
			b := v
			out[i].Approved = &b
		}
	}
	return out
}
