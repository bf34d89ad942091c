package app

import (
	"fmt"
	"slices"
	"strings"

	"flexreviews/internal/domain"
)

type SortOrder string

const (
	SortDateDesc   SortOrder = "date_desc"
	SortDateAsc    SortOrder = "date_asc"
	SortRatingDesc SortOrder = "rating_desc"
	SortRatingAsc  SortOrder = "rating_asc"
)

// ParseSortOrder accepts the four known orders; empty means newest first.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDateDesc:
		return SortDateDesc, nil
	case SortDateAsc:
		return SortDateAsc, nil
	case SortRatingDesc:
		return SortRatingDesc, nil
	case SortRatingAsc:
		return SortRatingAsc, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Filters are conjunctive; a nil field does not constrain.
type Filters struct {
	Property  *string
	MinRating *float64
	Category  *string
	Channel   *string
	Approved  *bool
}

func (f Filters) match(r domain.NormalizedReview) bool {
	if f.Property != nil && r.Property != *f.Property {
		return false
	}
	if f.MinRating != nil && (r.Rating == nil || *r.Rating < *f.MinRating) {
		return false
	}
	if f.Category != nil && !r.HasCategory(*f.Category) {
		return false
	}
	if f.Channel != nil && r.Channel != *f.Channel {
		return false
	}
	if f.Approved != nil && r.Approved != *f.Approved {
		return false
	}
	return true
}

// Filter keeps matching reviews in input order. The input is not modified.
func Filter(reviews []domain.NormalizedReview, f Filters) []domain.NormalizedReview {
	out := make([]domain.NormalizedReview, 0, len(reviews))
	for _, r := range reviews {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a stably sorted copy. Missing ratings compare as 0.
func Sort(reviews []domain.NormalizedReview, order SortOrder) []domain.NormalizedReview {
	out := slices.Clone(reviews)
	var cmp func(a, b domain.NormalizedReview) int
	switch order {
	case SortDateAsc:
		cmp = func(a, b domain.NormalizedReview) int { return a.Date.Compare(b.Date) }
	case SortRatingDesc:
		cmp = func(a, b domain.NormalizedReview) int { return compareFloat(b.RatingOrZero(), a.RatingOrZero()) }
	case SortRatingAsc:
		cmp = func(a, b domain.NormalizedReview) int { return compareFloat(a.RatingOrZero(), b.RatingOrZero()) }
	default:
		cmp = func(a, b domain.NormalizedReview) int { return b.Date.Compare(a.Date) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// Query filters then sorts.
func Query(reviews []domain.NormalizedReview, f Filters, order SortOrder) []domain.NormalizedReview {
	return Sort(Filter(reviews, f), order)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
