package model

import (
	"database/sql"
	"time"
)

// Rating bounds enforced by validation and by the table CHECK constraint.
const (
	MinRating        = 1
	MaxRating        = 5
	ReviewCommentMax = 1000
)

// Review represents a row of the `reviews` table.  At most one review exists
// per (UserID, MovieID) pair.
type Review struct {
	ID        uint64         // reviews.id
	UserID    uint64         // reviews.user_id
	MovieID   uint64         // reviews.movie_id
	Rating    int            // reviews.rating
	Comment   sql.NullString // reviews.comment
	CreatedAt time.Time      // reviews.created_at
	UpdatedAt time.Time      // reviews.updated_at

	// Movie is populated only when the caller asked for it.
	Movie *MovieBrief
}

// MovieBrief is the compact movie attached to a review listing.
type MovieBrief struct {
	ID          uint64
	Title       string
	ReleaseDate time.Time
}

// CastEntry represents a row of the `movie_cast` join table.
type CastEntry struct {
	ID            uint64    // movie_cast.id
	MovieID       uint64    // movie_cast.movie_id
	ActorID       uint64    // movie_cast.actor_id
	CharacterName string    // movie_cast.character_name
	CreatedAt     time.Time // movie_cast.created_at
	UpdatedAt     time.Time // movie_cast.updated_at
}
