package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mealbox/orderd/internal/models"
)

// OrderRepository persists orders and their lines, and owns the stock
// adjustments that go with them. Reservation and restitution each run as a
// single transaction so an order can never be half applied.
type OrderRepository struct {
	pool Pool
}

func NewOrderRepository(pool Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Reserve inserts the order and its lines and decrements stock for each
// line, all in one transaction. Each decrement is conditional on sufficient
// stock; any shortage aborts the whole transaction and is reported as an
// InsufficientStockError. Two concurrent orders can therefore never drive a
// stock quantity negative.
func (r *OrderRepository) Reserve(ctx context.Context, o *models.Order, lines []models.OrderLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, status, total_price, delivery_window_start, delivery_window_end, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, o.Status, o.TotalPrice, o.DeliveryWindowStart, o.DeliveryWindowEnd, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range lines {
		line := &lines[i]
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
		line.OrderID = o.ID

		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, menu_id, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5)`,
			line.ID, line.OrderID, line.MenuID, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE menus SET stock_quantity = stock_quantity - $2
			 WHERE id = $1 AND stock_quantity >= $2`,
			line.MenuID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			available := 0
			err := tx.QueryRow(ctx, `SELECT stock_quantity FROM menus WHERE id = $1`, line.MenuID).Scan(&available)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("read stock after conflict: %w", err)
			}
			return &models.InsufficientStockError{MenuID: line.MenuID, Available: available}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CancelAndRestock flips a pending order owned by userID to cancelled and
// restores the ordered quantity of every line, in one transaction. Missing
// orders, foreign orders, and orders that are no longer pending all report
// ErrOrderNotFound so the caller learns nothing about which orders exist.
func (r *OrderRepository) CancelAndRestock(ctx context.Context, orderID, userID string) ([]models.OrderLine, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND user_id = $2 AND status = $4`,
		orderID, userID, models.StatusCancelled, models.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrOrderNotFound
	}

	rows, err := tx.Query(ctx,
		`SELECT id, order_id, menu_id, quantity, unit_price FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}

	var lines []models.OrderLine
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuID, &l.Quantity, &l.UnitPrice); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// Additive restore rather than assignment, so concurrent admin stock
	// edits are not clobbered.
	for _, l := range lines {
		_, err := tx.Exec(ctx,
			`UPDATE menus SET stock_quantity = stock_quantity + $2 WHERE id = $1`,
			l.MenuID, l.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return lines, nil
}

// ListByUser returns the caller's order headers, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, status, total_price, delivery_window_start, delivery_window_end, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice,
			&o.DeliveryWindowStart, &o.DeliveryWindowEnd, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return orders, nil
}

// GetByID returns the full order with lines and their referenced menu rows.
// The user filter is part of the query, so foreign orders are
// indistinguishable from missing ones.
func (r *OrderRepository) GetByID(ctx context.Context, orderID, userID string) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, total_price, delivery_window_start, delivery_window_end, created_at
		 FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&detail.ID, &detail.UserID, &detail.Status, &detail.TotalPrice,
		&detail.DeliveryWindowStart, &detail.DeliveryWindowEnd, &detail.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.menu_id, oi.quantity, oi.unit_price,
		        m.id, m.name, m.price, m.stock_quantity, COALESCE(m.category, ''), m.dietary_tags,
		        COALESCE(m.image_url, ''), m.available_date, m.created_at
		 FROM order_items oi
		 LEFT JOIN menus m ON m.id = oi.menu_id
		 WHERE oi.order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line      models.OrderLineDetail
			menuID    *string
			menuName  *string
			menuPrice *int64
			menuStock *int
			category  string
			tags      []string
			imageURL  string
			availDate *time.Time
			createdAt *time.Time
		)
		err := rows.Scan(&line.ID, &line.OrderID, &line.MenuID, &line.Quantity, &line.UnitPrice,
			&menuID, &menuName, &menuPrice, &menuStock, &category, &tags, &imageURL, &availDate, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}

		if menuID != nil {
			line.Menu = &models.MenuItem{
				ID:            *menuID,
				Name:          *menuName,
				Price:         *menuPrice,
				StockQuantity: *menuStock,
				Category:      category,
				DietaryTags:   tags,
				ImageURL:      imageURL,
				AvailableDate: availDate,
			}
			if createdAt != nil {
				line.Menu.CreatedAt = *createdAt
			}
		}
		detail.Items = append(detail.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &detail, nil
}
