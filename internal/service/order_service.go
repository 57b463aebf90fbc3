package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mealbox/orderd/internal/models"
)

// CatalogStore is the catalog read surface the admission engine needs.
type CatalogStore interface {
	List(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error)
	GetByID(ctx context.Context, id string) (*models.MenuItem, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.MenuItem, error)
}

// OrderStore persists orders and applies the matching stock adjustments
// transactionally.
type OrderStore interface {
	Reserve(ctx context.Context, o *models.Order, lines []models.OrderLine) error
	CancelAndRestock(ctx context.Context, orderID, userID string) ([]models.OrderLine, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, orderID, userID string) (*models.OrderDetail, error)
}

// IDGuard is a fast negative-membership test over known menu ids. A false
// answer must be definitive with respect to the current catalog; anything
// uncertain answers true and the catalog fetch decides.
type IDGuard interface {
	MayContain(ctx context.Context, id string) bool
}

// EventPublisher emits order lifecycle events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *models.Order, lines []models.OrderLine) error
	PublishOrderCancelled(ctx context.Context, orderID, userID string) error
}

// Pricing holds the admission rules.
type Pricing struct {
	// BulkDiscountThreshold is the grand total above which the bulk
	// discount applies. The comparison is strict: a total equal to the
	// threshold is not discounted.
	BulkDiscountThreshold int64
	BulkDiscountPercent   int64
	LeadTime              time.Duration
}

// OrderService runs the order workflow: admission (validate, price,
// reserve) and cancellation (status flip, stock restitution).
type OrderService struct {
	catalog CatalogStore
	orders  OrderStore
	guard   IDGuard        // optional
	events  EventPublisher // optional
	pricing Pricing
	log     *slog.Logger
	now     func() time.Time
}

// NewOrderService creates the order service. guard and events may be nil.
func NewOrderService(catalog CatalogStore, orders OrderStore, guard IDGuard, events EventPublisher, pricing Pricing, log *slog.Logger) *OrderService {
	return &OrderService{
		catalog: catalog,
		orders:  orders,
		guard:   guard,
		events:  events,
		pricing: pricing,
		log:     log,
		now:     time.Now,
	}
}

// PlaceOrder admits an order: it validates the request, enforces the lead
// time, prices every line against the live catalog, and reserves stock.
// Nothing is written unless every check passes; the reservation itself is a
// single transaction in the order store.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req models.PlaceOrderRequest) (*models.Order, error) {
	start, end, verr := validateOrderRequest(req)
	if verr != nil {
		return nil, verr
	}

	if start.Sub(s.now()) < s.pricing.LeadTime {
		return nil, &models.LeadTimeError{Required: s.pricing.LeadTime}
	}

	ids := distinctMenuIDs(req.Items)

	// A definitive guard miss rejects without touching order admission
	// queries; hits still go through the catalog fetch. Misses map to the
	// same errors the fetch below would produce.
	if s.guard != nil {
		var missing []string
		for _, id := range ids {
			if !s.guard.MayContain(ctx, id) {
				missing = append(missing, id)
			}
		}
		if len(missing) == len(ids) {
			return nil, models.ErrNoValidItems
		}
		if len(missing) > 0 {
			return nil, &models.UnknownItemError{MenuID: missing[0]}
		}
	}

	items, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog items: %w", err)
	}
	if len(items) == 0 {
		return nil, models.ErrNoValidItems
	}

	var total int64
	lines := make([]models.OrderLine, 0, len(req.Items))
	for _, lr := range req.Items {
		item, ok := items[lr.MenuID]
		if !ok {
			return nil, &models.UnknownItemError{MenuID: lr.MenuID}
		}
		if item.StockQuantity < lr.Quantity {
			return nil, &models.InsufficientStockError{MenuID: lr.MenuID, Available: item.StockQuantity}
		}

		total += item.Price * int64(lr.Quantity)
		lines = append(lines, models.OrderLine{
			MenuID:    lr.MenuID,
			Quantity:  lr.Quantity,
			UnitPrice: item.Price, // snapshot of the undiscounted catalog price
		})
	}

	// The discount applies once to the grand total, never per line.
	if total > s.pricing.BulkDiscountThreshold {
		total -= total * s.pricing.BulkDiscountPercent / 100
	}

	order := &models.Order{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Status:              models.StatusPending,
		TotalPrice:          total,
		DeliveryWindowStart: start,
		DeliveryWindowEnd:   end,
		CreatedAt:           s.now().UTC(),
	}

	// The stock adequacy check above is advisory; the reservation's
	// conditional decrements are authoritative under concurrency.
	if err := s.orders.Reserve(ctx, order, lines); err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.PublishOrderCreated(ctx, order, lines); err != nil {
			s.log.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	return order, nil
}

// Cancel moves a pending order owned by the caller to cancelled and
// restores stock for every line. Any mismatch (missing order, foreign
// owner, non-pending status) reports models.ErrOrderNotFound.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID string) error {
	if _, err := uuid.Parse(orderID); err != nil {
		verr := &models.ValidationError{}
		return verr.Add("orderId", "must be a valid UUID")
	}

	if _, err := s.orders.CancelAndRestock(ctx, orderID, userID); err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.PublishOrderCancelled(ctx, orderID, userID); err != nil {
			s.log.Error("failed to publish order cancelled event", "error", err, "order_id", orderID)
		}
	}

	return nil
}

// ListOrders returns the caller's order history.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetOrder returns the caller's order with lines and referenced menu rows.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*models.OrderDetail, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		verr := &models.ValidationError{}
		return nil, verr.Add("orderId", "must be a valid UUID")
	}
	return s.orders.GetByID(ctx, orderID, userID)
}

func validateOrderRequest(req models.PlaceOrderRequest) (start, end time.Time, _ *models.ValidationError) {
	verr := &models.ValidationError{}

	start, err := time.Parse(time.RFC3339, req.DeliveryWindowStart)
	if err != nil {
		verr.Add("delivery_window_start", "must be a valid ISO-8601 date-time")
	}
	end, err = time.Parse(time.RFC3339, req.DeliveryWindowEnd)
	if err != nil {
		verr.Add("delivery_window_end", "must be a valid ISO-8601 date-time")
	}

	if len(req.Items) == 0 {
		verr.Add("items", "must contain at least one item")
	}
	for i, item := range req.Items {
		if _, err := uuid.Parse(item.MenuID); err != nil {
			verr.Add(fmt.Sprintf("items[%d].menu_id", i), "must be a valid UUID")
		}
		if item.Quantity <= 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "must be a positive integer")
		}
	}

	if len(verr.Fields) > 0 {
		return time.Time{}, time.Time{}, verr
	}
	return start, end, nil
}

func distinctMenuIDs(items []models.OrderLineRequest) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.MenuID]; ok {
			continue
		}
		seen[item.MenuID] = struct{}{}
		ids = append(ids, item.MenuID)
	}
	return ids
}
