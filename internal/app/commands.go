package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"flexreviews/internal/adapters/observability"
	"flexreviews/internal/domain"
)

// ModerationService owns the approval flags persisted in the snapshot store.
// Writes are serialized so concurrent toggles cannot lose each other's updates.
type ModerationService struct {
	store   domain.SnapshotStore
	channel domain.ChannelClient // nil when no credentials are configured
	mu      sync.Mutex
}

// NewModerationService builds the write path. When c is set, a toggle for a
// review that only the channel knows copies that record into the snapshot.
func NewModerationService(store domain.SnapshotStore, c domain.ChannelClient) *ModerationService {
	return &ModerationService{store: store, channel: c}
}

// approvalReader is implemented by stores that can read one flag directly.
type approvalReader interface {
	Approved(ctx context.Context, id int64) (bool, error)
}

// Get reports the persisted approval flag; unknown ids are not approved.
func (s *ModerationService) Get(ctx context.Context, id int64) (bool, error) {
	if ar, ok := s.store.(approvalReader); ok {
		v, err := ar.Approved(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read approval: %w", err)
		}
		return v, nil
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	for _, r := range snap.Result {
		if r.ID == id {
			return r.Approved != nil && *r.Approved, nil
		}
	}
	return false, nil
}

// Set updates the approval flag of one review and rewrites the whole snapshot
// before returning. An id known to neither the snapshot nor the channel is
// accepted without writing anything.
func (s *ModerationService) Set(ctx context.Context, id int64, approved bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		observability.ObserveModeration("error")
		return false, fmt.Errorf("load snapshot: %w", err)
	}

	idx := -1
	for i := range snap.Result {
		if snap.Result[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		rec, ok := s.liveRecord(ctx, id)
		if !ok {
			observability.ObserveModeration("unknown_id")
			log.Info().Int64("id", id).Msg("approval toggle for unknown review ignored")
			return true, nil
		}
		snap.Result = append(snap.Result, rec)
		idx = len(snap.Result) - 1
		log.Info().Int64("id", id).Msg("live review added to snapshot")
	}

	v := approved
	snap.Result[idx].Approved = &v
	if err := s.store.Save(ctx, snap); err != nil {
		observability.ObserveModeration("error")
		return false, fmt.Errorf("save snapshot: %w", err)
	}

	observability.ObserveModeration("applied")
	log.Info().Int64("id", id).Bool("approved", approved).Msg("approval updated")
	return true, nil
}

// liveRecord looks id up in the channel's current batch. A failed fetch counts
// as not found.
func (s *ModerationService) liveRecord(ctx context.Context, id int64) (domain.RawChannelReview, bool) {
	if s.channel == nil {
		return domain.RawChannelReview{}, false
	}
	live, err := s.channel.FetchReviews(ctx)
	if err != nil {
		log.Warn().Err(err).Int64("id", id).Msg("channel lookup for approval toggle failed")
		return domain.RawChannelReview{}, false
	}
	for _, r := range live {
		if r.ID == id {
			return r, true
		}
	}
	return domain.RawChannelReview{}, false
}

// approvals indexes the persisted flags by review id.
func approvals(snap domain.Snapshot) map[int64]bool {
	out := make(map[int64]bool, len(snap.Result))
	for _, r := range snap.Result {
		if r.Approved != nil {
			out[r.ID] = *r.Approved
		}
	}
	return out
}
