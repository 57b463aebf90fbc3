package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mealbox/orderd/internal/models"
)

const menuColumns = `id, name, price, stock_quantity, COALESCE(category, ''), dietary_tags, COALESCE(image_url, ''), available_date, created_at`

// CatalogRepository reads menu item records from Postgres. Stock mutation
// happens through the order repository so it stays inside the reservation
// transaction.
type CatalogRepository struct {
	pool Pool
}

func NewCatalogRepository(pool Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns menu items matching the filter, newest first.
func (r *CatalogRepository) List(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menus`
	var (
		clauses []string
		args    []any
	)

	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(filter.DietaryTags) > 0 {
		args = append(args, filter.DietaryTags)
		clauses = append(clauses, fmt.Sprintf("dietary_tags @> $%d", len(args)))
	}
	if filter.AvailableDate != nil {
		args = append(args, *filter.AvailableDate)
		clauses = append(clauses, fmt.Sprintf("available_date = $%d", len(args)))
	}

	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select menus: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return items, nil
}

// GetByID returns a single menu item.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*models.MenuItem, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+menuColumns+` FROM menus WHERE id = $1`, id)
	item, err := scanMenuItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("select menu item: %w", err)
	}
	return &item, nil
}

// GetByIDs fetches the requested menu items keyed by id. Missing ids are
// simply absent from the result; the caller decides how to treat them.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+menuColumns+` FROM menus WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("select menus by ids: %w", err)
	}
	defer rows.Close()

	items := make(map[string]models.MenuItem, len(ids))
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return items, nil
}

// AllIDs returns every menu item id, used to seed the known-id filter.
func (r *CatalogRepository) AllIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM menus`)
	if err != nil {
		return nil, fmt.Errorf("select menu ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan menu id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return ids, nil
}

func scanMenuItem(row pgx.Row) (models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.StockQuantity,
		&item.Category,
		&item.DietaryTags,
		&item.ImageURL,
		&item.AvailableDate,
		&item.CreatedAt,
	)
	return item, err
}
