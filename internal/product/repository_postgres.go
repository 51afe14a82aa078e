package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, name, slug, price, description, image, category, stock, active, created_at, updated_at`

	getProductByIDQuery   = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	getProductBySlugQuery = `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	getProductByNameQuery = `SELECT ` + productColumns + ` FROM products WHERE name = $1 ORDER BY created_at, id LIMIT 1`
	listAvailableQuery    = `
		SELECT ` + productColumns + `
		FROM products
		WHERE active = TRUE AND stock > 0 AND id <> $1
		ORDER BY created_at, id
		LIMIT $2
	`
	listBySlugsQuery   = `SELECT ` + productColumns + ` FROM products WHERE slug = ANY($1::text[])`
	insertProductQuery = `
		INSERT INTO products (id, name, slug, price, description, image, category, stock, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`
	updateProductQuery = `
		UPDATE products
		SET name = $1,
			price = $2,
			description = $3,
			image = $4,
			category = $5,
			stock = $6,
			active = $7,
			updated_at = $8
		WHERE id = $9
	`
	deleteProductQuery = `DELETE FROM products WHERE id = $1`
)

const uniqueViolation = "23505"

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p           Product
		description sql.NullString
		image       sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Price, &description, &image, &p.Category, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if description.Valid {
		p.Description = description.String
	}
	if image.Valid {
		p.Image = image.String
	}
	return p, nil
}

func (r *PostgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders the filter part of q with positional arguments.
func whereClause(q ListQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if !q.IncludeInactive {
		clauses = append(clauses, "active = TRUE")
	}
	if q.Category != "" {
		args = append(args, q.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.Q != "" {
		args = append(args, "%"+likeEscaper.Replace(q.Q)+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case SortPriceAsc:
		return " ORDER BY price ASC, created_at DESC, id"
	case SortPriceDesc:
		return " ORDER BY price DESC, created_at DESC, id"
	default:
		return " ORDER BY created_at DESC, id"
	}
}

func (r *PostgresRepository) List(ctx context.Context, q ListQuery) ([]Product, error) {
	where, args := whereClause(q)
	args = append(args, q.Limit, q.Offset())
	query := `SELECT ` + productColumns + ` FROM products` + where + orderClause(q.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.queryProducts(ctx, query, args...)
}

func (r *PostgresRepository) Count(ctx context.Context, q ListQuery) (int, error) {
	where, args := whereClause(q)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	return r.getOne(ctx, getProductByIDQuery, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (Product, error) {
	return r.getOne(ctx, getProductBySlugQuery, slug)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (Product, error) {
	return r.getOne(ctx, getProductByNameQuery, name)
}

func (r *PostgresRepository) ListAvailable(ctx context.Context, excludeID string, limit int) ([]Product, error) {
	if limit <= 0 {
		return []Product{}, nil
	}
	return r.queryProducts(ctx, listAvailableQuery, excludeID, limit)
}

// ListBySlugs returns an empty slice without querying when slugs is empty.
func (r *PostgresRepository) ListBySlugs(ctx context.Context, slugs []string) ([]Product, error) {
	if len(slugs) == 0 {
		return []Product{}, nil
	}
	return r.queryProducts(ctx, listBySlugsQuery, pq.Array(slugs))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProduct(ctx context.Context, db execer, p Product) error {
	_, err := db.ExecContext(ctx, insertProductQuery,
		p.ID,
		p.Name,
		p.Slug,
		p.Price,
		p.Description,
		p.Image,
		p.Category,
		p.Stock,
		p.Active,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	if err := insertProduct(ctx, r.db, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p Product) (Product, error) {
	result, err := r.db.ExecContext(ctx, updateProductQuery,
		p.Name,
		p.Price,
		p.Description,
		p.Image,
		p.Category,
		p.Stock,
		p.Active,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return Product{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, deleteProductQuery, id)
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

// Reset deletes all products and inserts the provided list in a single transaction.
func (r *PostgresRepository) Reset(ctx context.Context, products []Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	for _, p := range products {
		if err := insertProduct(ctx, tx, p); err != nil {
			return fmt.Errorf("insert %s: %w", p.Slug, err)
		}
	}
	return tx.Commit()
}
