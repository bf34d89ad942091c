package app

import (
	"fmt"
	"strings"
	"time"

	"flexreviews/internal/domain"
)

/********** timestamp layouts **********/

// Hostaway emits "2006-01-02 15:04:05" in UTC; the rest cover hand-edited snapshots.
var submittedAtLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseSubmittedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, domain.ErrInvalidTimestamp
	}
	for _, layout := range submittedAtLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidTimestamp, s)
}

/********** rating derivation **********/

// deriveRating prefers the overall rating, then the first category rating.
// It returns nil when neither exists; nil and 0 are different answers.
func deriveRating(r domain.RawChannelReview) *float64 {
	if r.Rating != nil {
		v := *r.Rating
		return &v
	}
	if len(r.ReviewCategory) > 0 {
		v := r.ReviewCategory[0].Rating
		return &v
	}
	return nil
}

/********** reviews mapper **********/

// DroppedRecord names a raw record that could not be normalized.
type DroppedRecord struct {
	ID  int64
	Err error
}

// NormalizeReview maps one raw channel record to the canonical shape.
func NormalizeReview(r domain.RawChannelReview) (domain.NormalizedReview, error) {
	date, err := parseSubmittedAt(r.SubmittedAt)
	if err != nil {
		return domain.NormalizedReview{}, err
	}

	cats := make([]domain.Category, len(r.ReviewCategory))
	copy(cats, r.ReviewCategory)

	approved := false
	if r.Approved != nil {
		approved = *r.Approved
	}

	return domain.NormalizedReview{
		ID:         r.ID,
		Property:   r.ListingName,
		Reviewer:   r.GuestName,
		Rating:     deriveRating(r),
		Categories: cats,
		Channel:    domain.ChannelHostaway,
		Body:       r.PublicReview,
		Date:       date,
		Status:     r.Status,
		Approved:   approved,
	}, nil
}

// NormalizeReviews maps a batch in input order. Records with an unparseable
// timestamp are left out and reported in dropped; the rest of the batch is kept.
func NormalizeReviews(in []domain.RawChannelReview) (out []domain.NormalizedReview, dropped []DroppedRecord) {
	out = make([]domain.NormalizedReview, 0, len(in))
	for _, r := range in {
		nr, err := NormalizeReview(r)
		if err != nil {
			dropped = append(dropped, DroppedRecord{ID: r.ID, Err: err})
			continue
		}
		out = append(out, nr)
	}
	return out, dropped
}
