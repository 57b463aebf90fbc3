package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mealbox/orderd/internal/models"
	"github.com/mealbox/orderd/internal/service"
)

// MenuHandler handles menu browsing HTTP requests
type MenuHandler struct {
	menuService *service.MenuService
	log         *slog.Logger
}

// NewMenuHandler creates a new menu handler
func NewMenuHandler(menuService *service.MenuService, log *slog.Logger) *MenuHandler {
	return &MenuHandler{
		menuService: menuService,
		log:         log,
	}
}

// ListItems handles GET /api/v1/menu
func (h *MenuHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	var filter models.MenuFilter
	filter.Category = r.URL.Query().Get("category")
	filter.DietaryTags = r.URL.Query()["dietary_tags"]

	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "date must be a valid ISO-8601 date", h.log)
			return
		}
		filter.AvailableDate = &date
	}

	items, err := h.menuService.ListItems(r.Context(), filter)
	if err != nil {
		h.log.Error("failed to list menu items", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}
	if len(items) == 0 {
		WriteError(w, http.StatusNotFound, "No menu items found", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, items, h.log)
}

// GetItem handles GET /api/v1/menu/{menuId}
func (h *MenuHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	menuID := chi.URLParam(r, "menuId")

	item, err := h.menuService.GetItem(r.Context(), menuID)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			WriteError(w, http.StatusBadRequest, verr.Error(), h.log)
		case errors.Is(err, models.ErrMenuItemNotFound):
			WriteError(w, http.StatusNotFound, "Menu item not found", h.log)
		default:
			h.log.Error("failed to get menu item", "error", err, "menu_id", menuID)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusOK, item, h.log)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
