package domain

// ExternalReview is a review authored on the independent review source.
type ExternalReview struct {
	AuthorName              string  `json:"author_name"`
	Rating                  float64 `json:"rating"`
	Text                    string  `json:"text"`
	RelativeTimeDescription string  `json:"relative_time_description"`
}

// PlaceSummary is display-only data for one location.
type PlaceSummary struct {
	Rating  *float64         `json:"rating,omitempty"`
	Reviews []ExternalReview `json:"reviews"`
}

// MaxExternalReviews bounds how many external reviews are shown per place.
const MaxExternalReviews = 2
