package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const castColumns = "id, movie_id, actor_id, character_name, created_at, updated_at"

// CastRepo manages `movie_cast`, the movie <-> actor join carrying the
// character name.
type CastRepo struct {
	db *sql.DB
}

func NewCastRepo(db *sql.DB) *CastRepo { return &CastRepo{db: db} }

func scanCast(s rowScanner, c *model.CastEntry) error {
	return s.Scan(&c.ID, &c.MovieID, &c.ActorID, &c.CharacterName, &c.CreatedAt, &c.UpdatedAt)
}

// List returns one page of cast entries ordered by id and the total count.
func (r *CastRepo) List(ctx context.Context, p model.Pagination) ([]model.CastEntry, int64, error) {
	total, err := count(ctx, r.db, "SELECT COUNT(*) FROM movie_cast")
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+castColumns+" FROM movie_cast ORDER BY id LIMIT ? OFFSET ?", p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.CastEntry, 0, p.PerPage)
	for rows.Next() {
		var c model.CastEntry
		if err := scanCast(rows, &c); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches one cast entry or ErrNotFound.
func (r *CastRepo) GetByID(ctx context.Context, id uint64) (*model.CastEntry, error) {
	var c model.CastEntry
	if err := scanCast(r.db.QueryRowContext(ctx, "SELECT "+castColumns+" FROM movie_cast WHERE id = ?", id), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts a cast entry and reloads it.
func (r *CastRepo) Create(ctx context.Context, c *model.CastEntry) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movie_cast (movie_id, actor_id, character_name) VALUES (?, ?, ?)",
		c.MovieID, c.ActorID, strings.TrimSpace(c.CharacterName))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// Update overwrites all fields of a cast entry.
func (r *CastRepo) Update(ctx context.Context, c *model.CastEntry) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE movie_cast SET movie_id = ?, actor_id = ?, character_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		c.MovieID, c.ActorID, strings.TrimSpace(c.CharacterName), c.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	return nil
}

// Delete removes a cast entry.
func (r *CastRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movie_cast WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
