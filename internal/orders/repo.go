package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MutateFn inspects and modifies an order while its row is locked. It reports
// whether the line set was replaced so the repository knows to rewrite it.
type MutateFn func(o *Order) (linesChanged bool, err error)

// Repository persists Order aggregates. Soft-deleted orders are invisible to
// every read and can never be mutated again.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, error)
	ListByUser(ctx context.Context, userID int64, page, size int) ([]*Order, error)
	Mutate(ctx context.Context, id int64, fn MutateFn) (*Order, error)
}

type PgRepo struct{ DB *pgxpool.Pool }

const orderCols = `id, user_id, status, total_price, deleted, created_at, updated_at`

func (r *PgRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, status, total_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.Status, o.TotalPrice,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, item_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			o.ID, l.ItemID, l.Quantity, l.UnitPrice,
		).Scan(&l.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepo) GetByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE id=$1 AND deleted=false`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.Deleted, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Lines, err = loadLines(ctx, r.DB, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// buildListQuery turns the optional filters into a WHERE clause. Each absent
// predicate matches everything; the date range binds to created_at.
func buildListQuery(f ListFilter) (string, []any) {
	q := `SELECT ` + orderCols + ` FROM orders WHERE deleted=false`
	var args []any
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		q += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		q += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	if len(f.Statuses) > 0 {
		ss := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			ss[i] = string(s)
		}
		args = append(args, ss)
		q += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	size := f.Size
	if size <= 0 {
		size = 20
	}
	page := f.Page
	if page < 0 {
		page = 0
	}
	args = append(args, size, page*size)
	q += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return q, args
}

func (r *PgRepo) List(ctx context.Context, f ListFilter) ([]*Order, error) {
	q, args := buildListQuery(f)
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	return r.attachLines(ctx, out)
}

func (r *PgRepo) ListByUser(ctx context.Context, userID int64, page, size int) ([]*Order, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	rows, err := r.DB.Query(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE user_id=$1 AND deleted=false
		ORDER BY id LIMIT $2 OFFSET $3`, userID, size, page*size)
	if err != nil {
		return nil, err
	}
	out, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	return r.attachLines(ctx, out)
}

// Mutate locks the order row, loads the aggregate, applies fn and persists
// the result in one transaction. The FOR UPDATE lock makes the
// check-and-apply sequence single-writer per aggregate.
func (r *PgRepo) Mutate(ctx context.Context, id int64, fn MutateFn) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o Order
	err = tx.QueryRow(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE id=$1 AND deleted=false
		FOR UPDATE`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.Deleted, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Lines, err = loadLines(ctx, tx, id); err != nil {
		return nil, err
	}

	linesChanged, err := fn(&o)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE orders SET status=$2, total_price=$3, deleted=$4, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		o.ID, o.Status, o.TotalPrice, o.Deleted,
	).Scan(&o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if linesChanged {
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
			return nil, err
		}
		for i := range o.Lines {
			l := &o.Lines[i]
			l.OrderID = o.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO order_items(order_id, item_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				o.ID, l.ItemID, l.Quantity, l.UnitPrice,
			).Scan(&l.ID)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLines(ctx context.Context, q queryer, orderID int64) ([]OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, item_id, quantity, unit_price
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanOrders(rows pgx.Rows) ([]*Order, error) {
	defer rows.Close()
	var out []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.Deleted, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (r *PgRepo) attachLines(ctx context.Context, os []*Order) ([]*Order, error) {
	for _, o := range os {
		lines, err := loadLines(ctx, r.DB, o.ID)
		if err != nil {
			return nil, err
		}
		o.Lines = lines
	}
	return os, nil
}
