package items

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context, page, size int) ([]*Item, error)
	SearchByName(ctx context.Context, name string) ([]*Item, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id int64) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type PgRepo struct{ DB *pgxpool.Pool }

func (r *PgRepo) Create(ctx context.Context, it *Item) error {
	return r.DB.QueryRow(ctx, `
		INSERT INTO items(name, description, price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		it.Name, it.Description, it.Price,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
}

func (r *PgRepo) GetByID(ctx context.Context, id int64) (*Item, error) {
	var it Item
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, description, price, created_at, updated_at
		FROM items WHERE id=$1`, id,
	).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PgRepo) List(ctx context.Context, page, size int) ([]*Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, description, price, created_at, updated_at
		FROM items ORDER BY id LIMIT $1 OFFSET $2`, size, page*size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *PgRepo) SearchByName(ctx context.Context, name string) ([]*Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, description, price, created_at, updated_at
		FROM items WHERE name ILIKE '%' || $1 || '%' ORDER BY name`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *PgRepo) Update(ctx context.Context, it *Item) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE items SET name=$2, description=$3, price=$4, updated_at=now()
		WHERE id=$1`,
		it.ID, it.Name, it.Description, it.Price)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE name=$1)`, name).Scan(&exists)
	return exists, err
}

func scanItems(rows pgx.Rows) ([]*Item, error) {
	var out []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}
