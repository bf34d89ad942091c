package domain

import "context"

// ChannelClient fetches raw reviews from the booking channel.
type ChannelClient interface {
	FetchReviews(ctx context.Context) ([]RawChannelReview, error)
}

// SnapshotStore persists the full raw review collection.
// Save replaces the whole collection.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// PlacesClient fetches details for a location from the independent review source.
type PlacesClient interface {
	GetPlace(ctx context.Context, placeID string) (PlaceSummary, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
