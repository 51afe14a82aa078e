package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	orderColumns = `id, user_id, items, total, status, created_at, updated_at`

	insertOrderQuery = `
		INSERT INTO orders (id, user_id, items, total, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	getOrderByIDQuery   = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listOrdersByUserQry = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`
	updateOrderQuery    = `
		UPDATE orders
		SET items = $1,
			total = $2,
			status = $3,
			updated_at = $4
		WHERE id = $5
	`
	deleteOrderQuery = `DELETE FROM orders WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		ord       Order
		itemsJSON []byte
		status    string
	)
	if err := row.Scan(&ord.ID, &ord.UserID, &itemsJSON, &ord.Total, &status, &ord.CreatedAt, &ord.UpdatedAt); err != nil {
		return Order{}, err
	}
	ord.Status = Status(status)
	if err := json.Unmarshal(itemsJSON, &ord.Items); err != nil {
		return Order{}, fmt.Errorf("decode items of order %s: %w", ord.ID, err)
	}
	return ord, nil
}

func (r *PostgresRepository) Create(ctx context.Context, ord Order) (Order, error) {
	itemsJSON, err := json.Marshal(ord.Items)
	if err != nil {
		return Order{}, err
	}
	if _, err := r.db.ExecContext(ctx, insertOrderQuery,
		ord.ID, ord.UserID, itemsJSON, ord.Total, string(ord.Status), ord.CreatedAt, ord.UpdatedAt); err != nil {
		return Order{}, err
	}
	return ord, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Order, error) {
	ord, err := scanOrder(r.db.QueryRowContext(ctx, getOrderByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return ord, err
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersByUserQry, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, ord Order) (Order, error) {
	itemsJSON, err := json.Marshal(ord.Items)
	if err != nil {
		return Order{}, err
	}
	result, err := r.db.ExecContext(ctx, updateOrderQuery, itemsJSON, ord.Total, string(ord.Status), ord.UpdatedAt, ord.ID)
	if err != nil {
		return Order{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Order{}, err
	}
	if affected == 0 {
		return Order{}, ErrNotFound
	}
	return ord, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, deleteOrderQuery, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
