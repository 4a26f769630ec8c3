package model

import (
	"database/sql"
	"time"
)

// DateLayout is the wire and storage format of release dates.
const DateLayout = "2006-01-02"

// Movie represents a row of the `movies` table.
//
// Fields:
//
//	ID          – primary key identifier.
//	Title       – display title.
//	ReleaseDate – calendar date of release (time-of-day is always zero).
//	DirectorID  – nullable; set to NULL when the director is deleted.
//	Synopsis    – nullable free text.
//	Duration    – running time in minutes.
//	PosterPath  – nullable path relative to the public storage root.
type Movie struct {
	ID          uint64         // movies.id
	Title       string         // movies.title
	ReleaseDate time.Time      // movies.release_date
	DirectorID  sql.NullInt64  // movies.director_id
	Synopsis    sql.NullString // movies.synopsis
	Duration    int            // movies.duration
	PosterPath  sql.NullString // movies.poster_path
	CreatedAt   time.Time      // movies.created_at
	UpdatedAt   time.Time      // movies.updated_at
}

// CastMember is an actor as seen from a movie: the actor plus the character
// they play in it.
type CastMember struct {
	ActorID       uint64
	Name          string
	CharacterName string
}

// MovieRelations holds the eagerly loaded relationships of one movie.  A nil
// slice means "not requested"; an empty one means "requested, none found".
type MovieRelations struct {
	Director *Reference
	Cast     []CastMember
	Genres   []Reference
	Reviews  []Review
}

// RatingSummary is the review count and mean rating of a movie.  The average
// is zero, never null, when there are no reviews.
type RatingSummary struct {
	Count         int64
	AverageRating float64
}

// PopularMovie is one entry of the popularity ranking.
type PopularMovie struct {
	Movie
	Summary RatingSummary
}
