package handler

// Resource transformers: the JSON shapes returned to clients.  Models never
// reach the wire directly.

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
)

type userResource struct {
	ID               uint64    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	RegistrationDate time.Time `json:"registration_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newUserResource(u *model.User) userResource {
	return userResource{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Role.String(),
		RegistrationDate: u.RegistrationDate,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// referenceResource names the field after the kind: {"id", "genre_name", ...}.
func referenceResource(kind model.ReferenceKind, r *model.Reference) echo.Map {
	return echo.Map{
		"id":           r.ID,
		kind.NameField: r.Name,
		"created_at":   r.CreatedAt,
		"updated_at":   r.UpdatedAt,
	}
}

type castResource struct {
	ID            uint64    `json:"id"`
	MovieID       uint64    `json:"movie_id"`
	ActorID       uint64    `json:"actor_id"`
	CharacterName string    `json:"character_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newCastResource(c *model.CastEntry) castResource {
	return castResource{
		ID:            c.ID,
		MovieID:       c.MovieID,
		ActorID:       c.ActorID,
		CharacterName: c.CharacterName,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type movieBriefResource struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

type reviewResource struct {
	ID        uint64              `json:"id"`
	UserID    uint64              `json:"user_id"`
	MovieID   uint64              `json:"movie_id"`
	Rating    int                 `json:"rating"`
	Comment   *string             `json:"comment"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Movie     *movieBriefResource `json:"movie,omitempty"`
}

func newReviewResource(r *model.Review) reviewResource {
	out := reviewResource{
		ID:        r.ID,
		UserID:    r.UserID,
		MovieID:   r.MovieID,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Comment.Valid {
		c := r.Comment.String
		out.Comment = &c
	}
	if r.Movie != nil {
		out.Movie = &movieBriefResource{
			ID:          r.Movie.ID,
			Title:       r.Movie.Title,
			ReleaseDate: r.Movie.ReleaseDate.Format(model.DateLayout),
		}
	}
	return out
}

func reviewResources(rs []model.Review) []reviewResource {
	out := make([]reviewResource, 0, len(rs))
	for i := range rs {
		out = append(out, newReviewResource(&rs[i]))
	}
	return out
}

// movieReviewResource is a review nested under its movie.
type movieReviewResource struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type namedResource struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type castMemberResource struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	CharacterName string `json:"character_name"`
}

// movieResource renders a movie plus whichever relations were requested.
// With summarizeReviews the reviews block is {count, average_rating, data};
// otherwise it is the plain list.
func movieResource(m *model.Movie, rel *model.MovieRelations, inc model.Includes, posterURL func(string) string, summarizeReviews bool) echo.Map {
	out := echo.Map{
		"id":           m.ID,
		"title":        m.Title,
		"release_date": m.ReleaseDate.Format(model.DateLayout),
		"director_id":  nil,
		"synopsis":     nil,
		"duration":     m.Duration,
		"poster_path":  nil,
		"created_at":   m.CreatedAt,
		"updated_at":   m.UpdatedAt,
	}
	if m.DirectorID.Valid {
		out["director_id"] = m.DirectorID.Int64
	}
	if m.Synopsis.Valid {
		out["synopsis"] = m.Synopsis.String
	}
	if m.PosterPath.Valid && m.PosterPath.String != "" {
		out["poster_path"] = posterURL(m.PosterPath.String)
	}
	if rel == nil {
		return out
	}

	if inc.Director {
		if rel.Director != nil {
			out["director"] = namedResource{ID: rel.Director.ID, Name: rel.Director.Name}
		} else {
			out["director"] = nil
		}
	}
	if inc.Cast {
		cast := make([]castMemberResource, 0, len(rel.Cast))
		for _, cm := range rel.Cast {
			cast = append(cast, castMemberResource{ID: cm.ActorID, Name: cm.Name, CharacterName: cm.CharacterName})
		}
		out["cast"] = cast
	}
	if inc.Genres {
		genres := make([]namedResource, 0, len(rel.Genres))
		for _, g := range rel.Genres {
			genres = append(genres, namedResource{ID: g.ID, Name: g.Name})
		}
		out["genres"] = genres
	}
	if inc.Reviews {
		if summarizeReviews {
			data := make([]movieReviewResource, 0, len(rel.Reviews))
			sum := 0
			for i := range rel.Reviews {
				rv := newReviewResource(&rel.Reviews[i])
				data = append(data, movieReviewResource{ID: rv.ID, UserID: rv.UserID, Rating: rv.Rating, Comment: rv.Comment, CreatedAt: rv.CreatedAt})
				sum += rv.Rating
			}
			avg := 0.0
			if len(data) > 0 {
				avg = float64(sum) / float64(len(data))
			}
			out["reviews"] = echo.Map{"count": len(data), "average_rating": avg, "data": data}
		} else {
			out["reviews"] = reviewResources(rel.Reviews)
		}
	}
	return out
}

// pageResponse is the envelope of every paginated listing.
type pageResponse struct {
	Data any            `json:"data"`
	Meta model.PageMeta `json:"meta"`
}

// single wraps one resource the way listings wrap many.
func single(v any) echo.Map { return echo.Map{"data": v} }

type statisticsResource struct {
	MovieID    uint64          `json:"movie_id"`
	Title      string          `json:"title"`
	Statistics statisticsBlock `json:"statistics"`
}

type statisticsBlock struct {
	TotalReviews       int         `json:"total_reviews"`
	AverageRating      float64     `json:"average_rating"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	RecentReviewsCount int         `json:"recent_reviews_count"`
	LastReviewDate     *time.Time  `json:"last_review_date"`
}

func newStatisticsResource(m *model.Movie, st model.Statistics) statisticsResource {
	return statisticsResource{
		MovieID: m.ID,
		Title:   m.Title,
		Statistics: statisticsBlock{
			TotalReviews:       st.TotalReviews,
			AverageRating:      st.AverageRating,
			RatingDistribution: st.Distribution,
			RecentReviewsCount: st.RecentReviewsCount,
			LastReviewDate:     st.LastReviewDate,
		},
	}
}
