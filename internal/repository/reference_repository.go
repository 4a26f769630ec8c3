package repository

// Directors, actors and genres are plain named lookup tables.  ReferenceRepo
// serves any of them; the table comes from a model.ReferenceKind constant and
// is never taken from user input.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// ReferenceRepo encapsulates the queries of one reference table.
type ReferenceRepo struct {
	db   *sql.DB
	kind model.ReferenceKind
}

// NewReferenceRepo binds a repository to the given kind's table.
func NewReferenceRepo(db *sql.DB, kind model.ReferenceKind) *ReferenceRepo {
	return &ReferenceRepo{db: db, kind: kind}
}

// Kind returns the reference kind this repository serves.
func (r *ReferenceRepo) Kind() model.ReferenceKind { return r.kind }

func (r *ReferenceRepo) q(format string) string {
	return fmt.Sprintf(format, r.kind.Table)
}

// List returns one page of rows ordered by id and the total row count.
func (r *ReferenceRepo) List(ctx context.Context, p model.Pagination) ([]model.Reference, int64, error) {
	total, err := count(ctx, r.db, r.q("SELECT COUNT(*) FROM %s"))
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		r.q("SELECT id, name, created_at, updated_at FROM %s ORDER BY id LIMIT ? OFFSET ?"),
		p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Reference, 0, p.PerPage)
	for rows.Next() {
		var ref model.Reference
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.CreatedAt, &ref.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID fetches one row or ErrNotFound.
func (r *ReferenceRepo) GetByID(ctx context.Context, id uint64) (*model.Reference, error) {
	var ref model.Reference
	err := r.db.QueryRowContext(ctx, r.q("SELECT id, name, created_at, updated_at FROM %s WHERE id = ?"), id).
		Scan(&ref.ID, &ref.Name, &ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

// Create inserts a row and returns it with its generated id and timestamps.
func (r *ReferenceRepo) Create(ctx context.Context, name string) (*model.Reference, error) {
	res, err := r.db.ExecContext(ctx, r.q("INSERT INTO %s (name) VALUES (?)"), strings.TrimSpace(name))
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update renames a row and returns the fresh record.
func (r *ReferenceRepo) Update(ctx context.Context, id uint64, name string) (*model.Reference, error) {
	res, err := r.db.ExecContext(ctx,
		r.q("UPDATE %s SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"), strings.TrimSpace(name), id)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a row.  Foreign keys decide what happens to dependants:
// movies lose their director (SET NULL), cast rows and genre links cascade.
func (r *ReferenceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, r.q("DELETE FROM %s WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Exists reports whether a row with the id exists.
func (r *ReferenceRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	n, err := count(ctx, r.db, r.q("SELECT COUNT(*) FROM %s WHERE id = ?"), id)
	return n > 0, err
}

// NameTaken reports whether another row (id != exceptID) already has the name.
func (r *ReferenceRepo) NameTaken(ctx context.Context, name string, exceptID uint64) (bool, error) {
	n, err := count(ctx, r.db, r.q("SELECT COUNT(*) FROM %s WHERE name = ? AND id <> ?"), strings.TrimSpace(name), exceptID)
	return n > 0, err
}

// MissingIDs returns the ids from the input that have no row.
func (r *ReferenceRepo) MissingIDs(ctx context.Context, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE id IN (%s)", r.kind.Table, placeholders(len(ids))), uintArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[uint64]bool, len(ids))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var missing []uint64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
