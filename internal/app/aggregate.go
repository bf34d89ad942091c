package app

import "flexreviews/internal/domain"

// Aggregate groups reviews by property in first-seen order. Reviews without a
// rating are left out of the average; a property with no ratings averages 0.
func Aggregate(reviews []domain.NormalizedReview) []domain.PropertyAggregate {
	type acc struct {
		sum      float64
		rated    int
		approved int
		total    int
	}
	order := make([]string, 0)
	byProp := make(map[string]*acc)

	for _, r := range reviews {
		a, ok := byProp[r.Property]
		if !ok {
			a = &acc{}
			byProp[r.Property] = a
			order = append(order, r.Property)
		}
		a.total++
		if r.Rating != nil {
			a.sum += *r.Rating
			a.rated++
		}
		if r.Approved {
			a.approved++
		}
	}

	out := make([]domain.PropertyAggregate, 0, len(order))
	for _, p := range order {
		a := byProp[p]
		avg := 0.0
		if a.rated > 0 {
			avg = a.sum / float64(a.rated)
		}
		out = append(out, domain.PropertyAggregate{
			Property:      p,
			AverageRating: avg,
			ApprovedCount: a.approved,
			ReviewCount:   a.total,
		})
	}
	return out
}

// CollectFacets returns the distinct properties, categories and channels.
func CollectFacets(reviews []domain.NormalizedReview) domain.Facets {
	f := domain.Facets{Properties: []string{}, Categories: []string{}, Channels: []string{}}
	seenP, seenC, seenCh := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, r := range reviews {
		if !seenP[r.Property] {
			seenP[r.Property] = true
			f.Properties = append(f.Properties, r.Property)
		}
		for _, c := range r.Categories {
			if !seenC[c.Category] {
				seenC[c.Category] = true
				f.Categories = append(f.Categories, c.Category)
			}
		}
		if !seenCh[r.Channel] {
			seenCh[r.Channel] = true
			f.Channels = append(f.Channels, r.Channel)
		}
	}
	return f
}
