package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mealbox/orderd/internal/models"
	"github.com/mealbox/orderd/internal/repository"
	"github.com/mealbox/orderd/internal/testutil"
)

func setupRepo(t *testing.T) (*pgxpool.Pool, *repository.OrderRepository) {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}

	pool, cleanup := testutil.StartPostgres(context.Background(), t)
	t.Cleanup(cleanup)

	return pool, repository.NewOrderRepository(repository.NewPool(pool))
}

func seedMenu(t *testing.T, pool *pgxpool.Pool, name string, price int64, stock int) string {
	t.Helper()

	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO menus (id, name, price, stock_quantity) VALUES ($1, $2, $3, $4)`,
		id, name, price, stock)
	require.NoError(t, err)
	return id
}

func newOrder(userID string) *models.Order {
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	return &models.Order{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Status:              models.StatusPending,
		DeliveryWindowStart: start,
		DeliveryWindowEnd:   start.Add(2 * time.Hour),
		CreatedAt:           time.Now().UTC().Truncate(time.Second),
	}
}

func stockOf(t *testing.T, pool *pgxpool.Pool, menuID string) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(),
		`SELECT stock_quantity FROM menus WHERE id = $1`, menuID).Scan(&stock)
	require.NoError(t, err)
	return stock
}

func TestOrderRepository_ReserveAndFetch(t *testing.T) {
	pool, repo := setupRepo(t)
	ctx := context.Background()

	menuID := seedMenu(t, pool, "Nasi Goreng", 45_000, 10)
	userID := uuid.NewString()

	order := newOrder(userID)
	order.TotalPrice = 90_000
	lines := []models.OrderLine{{MenuID: menuID, Quantity: 2, UnitPrice: 45_000}}

	require.NoError(t, repo.Reserve(ctx, order, lines))
	require.Equal(t, 8, stockOf(t, pool, menuID))

	detail, err := repo.GetByID(ctx, order.ID, userID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, detail.Status)
	require.Equal(t, int64(90_000), detail.TotalPrice)
	require.Len(t, detail.Items, 1)
	require.Equal(t, 2, detail.Items[0].Quantity)
	require.Equal(t, int64(45_000), detail.Items[0].UnitPrice)
	require.NotNil(t, detail.Items[0].Menu)
	require.Equal(t, "Nasi Goreng", detail.Items[0].Menu.Name)

	// The owner filter is part of the lookup.
	_, err = repo.GetByID(ctx, order.ID, uuid.NewString())
	require.ErrorIs(t, err, models.ErrOrderNotFound)

	orders, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, order.ID, orders[0].ID)
}

func TestOrderRepository_ShortageRollsBackEverything(t *testing.T) {
	pool, repo := setupRepo(t)
	ctx := context.Background()

	plentyID := seedMenu(t, pool, "Sate Ayam", 30_000, 10)
	scarceID := seedMenu(t, pool, "Rendang", 60_000, 1)
	userID := uuid.NewString()

	order := newOrder(userID)
	err := repo.Reserve(ctx, order, []models.OrderLine{
		{MenuID: plentyID, Quantity: 3, UnitPrice: 30_000},
		{MenuID: scarceID, Quantity: 2, UnitPrice: 60_000},
	})

	var stockErr *models.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, scarceID, stockErr.MenuID)
	require.Equal(t, 1, stockErr.Available)

	// The earlier decrement and the order insert must both be gone.
	require.Equal(t, 10, stockOf(t, pool, plentyID))
	require.Equal(t, 1, stockOf(t, pool, scarceID))
	_, err = repo.GetByID(ctx, order.ID, userID)
	require.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestOrderRepository_CancelRestoresStockOnce(t *testing.T) {
	pool, repo := setupRepo(t)
	ctx := context.Background()

	menuID := seedMenu(t, pool, "Soto Betawi", 40_000, 5)
	userID := uuid.NewString()

	order := newOrder(userID)
	require.NoError(t, repo.Reserve(ctx, order, []models.OrderLine{
		{MenuID: menuID, Quantity: 3, UnitPrice: 40_000},
	}))
	require.Equal(t, 2, stockOf(t, pool, menuID))

	lines, err := repo.CancelAndRestock(ctx, order.ID, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 5, stockOf(t, pool, menuID))

	// A second cancellation finds no pending order and restores nothing.
	_, err = repo.CancelAndRestock(ctx, order.ID, userID)
	require.ErrorIs(t, err, models.ErrOrderNotFound)
	require.Equal(t, 5, stockOf(t, pool, menuID))
}

func TestOrderRepository_CancelRejectsForeignOwner(t *testing.T) {
	pool, repo := setupRepo(t)
	ctx := context.Background()

	menuID := seedMenu(t, pool, "Bakso", 20_000, 5)
	owner := uuid.NewString()

	order := newOrder(owner)
	require.NoError(t, repo.Reserve(ctx, order, []models.OrderLine{
		{MenuID: menuID, Quantity: 1, UnitPrice: 20_000},
	}))

	_, err := repo.CancelAndRestock(ctx, order.ID, uuid.NewString())
	require.ErrorIs(t, err, models.ErrOrderNotFound)
	require.Equal(t, 4, stockOf(t, pool, menuID))
}

// Concurrent reservations against the same item must never oversell it: with
// stock N and 2N single-unit orders racing, exactly N may succeed.
func TestOrderRepository_ConcurrentReservationsNeverOversell(t *testing.T) {
	pool, repo := setupRepo(t)
	ctx := context.Background()

	const stock = 8
	menuID := seedMenu(t, pool, "Ayam Geprek", 28_000, stock)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < 2*stock; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			order := newOrder(uuid.NewString())
			order.TotalPrice = 28_000
			err := repo.Reserve(ctx, order, []models.OrderLine{
				{MenuID: menuID, Quantity: 1, UnitPrice: 28_000},
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			var stockErr *models.InsufficientStockError
			if errors.As(err, &stockErr) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, stock, succeeded)
	require.Equal(t, stock, conflicts)
	require.Equal(t, 0, stockOf(t, pool, menuID))
}
