package model

import "time"

// RecentWindow is how far back a review still counts as recent.
const RecentWindow = 30 * 24 * time.Hour

// RatingPoint is the part of a review the statistics need.
type RatingPoint struct {
	Rating    int
	CreatedAt time.Time
}

// Statistics summarises the reviews of one movie.  Distribution always holds
// the keys MinRating..MaxRating and its values sum to TotalReviews.
type Statistics struct {
	TotalReviews       int
	AverageRating      float64
	Distribution       map[int]int
	RecentReviewsCount int
	LastReviewDate     *time.Time
}

// ComputeStatistics aggregates the given ratings relative to now.  Ratings
// outside the allowed range are counted in the total and average but have no
// distribution bucket; the schema CHECK keeps that from happening in practice.
func ComputeStatistics(points []RatingPoint, now time.Time) Statistics {
	st := Statistics{Distribution: make(map[int]int, MaxRating-MinRating+1)}
	for r := MinRating; r <= MaxRating; r++ {
		st.Distribution[r] = 0
	}

	cutoff := now.Add(-RecentWindow)
	sum := 0
	for _, p := range points {
		st.TotalReviews++
		sum += p.Rating
		if _, ok := st.Distribution[p.Rating]; ok {
			st.Distribution[p.Rating]++
		}
		if !p.CreatedAt.Before(cutoff) {
			st.RecentReviewsCount++
		}
		if st.LastReviewDate == nil || p.CreatedAt.After(*st.LastReviewDate) {
			last := p.CreatedAt
			st.LastReviewDate = &last
		}
	}
	if st.TotalReviews > 0 {
		st.AverageRating = float64(sum) / float64(st.TotalReviews)
	}
	return st
}
