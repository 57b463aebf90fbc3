package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealbox/orderd/internal/models"
	"github.com/mealbox/orderd/internal/service"
	"github.com/mealbox/orderd/pkg/logger"
)

func newMenuRouter(cat *stubCatalog) http.Handler {
	log := logger.New("error")
	h := NewMenuHandler(service.NewMenuService(cat), log)

	r := chi.NewRouter()
	r.Get("/menu", h.ListItems)
	r.Get("/menu/{menuId}", h.GetItem)
	return r
}

func TestMenuHandler_ListItems(t *testing.T) {
	items := map[string]models.MenuItem{
		testMenuID: {ID: testMenuID, Name: "Gado-Gado", Price: 25_000, StockQuantity: 10, Category: "vegetarian"},
	}

	t.Run("lists items", func(t *testing.T) {
		router := newMenuRouter(&stubCatalog{items: items})

		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got []models.MenuItem
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, "Gado-Gado", got[0].Name)
	})

	t.Run("empty catalog is a 404", func(t *testing.T) {
		router := newMenuRouter(&stubCatalog{})

		req := httptest.NewRequest(http.MethodGet, "/menu", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No menu items found")
	})

	t.Run("passes filters through", func(t *testing.T) {
		cat := &stubCatalog{items: items}
		router := newMenuRouter(cat)

		req := httptest.NewRequest(http.MethodGet,
			"/menu?category=vegetarian&dietary_tags=vegan&dietary_tags=gluten-free&date=2026-09-15", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "vegetarian", cat.lastFilter.Category)
		assert.Equal(t, []string{"vegan", "gluten-free"}, cat.lastFilter.DietaryTags)
		require.NotNil(t, cat.lastFilter.AvailableDate)
		assert.Equal(t, "2026-09-15", cat.lastFilter.AvailableDate.Format("2006-01-02"))
	})

	t.Run("rejects a garbage date filter", func(t *testing.T) {
		router := newMenuRouter(&stubCatalog{items: items})

		req := httptest.NewRequest(http.MethodGet, "/menu?date=tomorrow", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMenuHandler_GetItem(t *testing.T) {
	items := map[string]models.MenuItem{
		testMenuID: {ID: testMenuID, Name: "Gado-Gado", Price: 25_000},
	}

	t.Run("found", func(t *testing.T) {
		router := newMenuRouter(&stubCatalog{items: items})

		req := httptest.NewRequest(http.MethodGet, "/menu/"+testMenuID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got models.MenuItem
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, testMenuID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		router := newMenuRouter(&stubCatalog{items: items})

		req := httptest.NewRequest(http.MethodGet, "/menu/22222222-2222-2222-2222-222222222222", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		router := newMenuRouter(&stubCatalog{items: items})

		req := httptest.NewRequest(http.MethodGet, "/menu/banana", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
