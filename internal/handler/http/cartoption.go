package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Bbachelard/Option/internal/service"
	"github.com/Bbachelard/Option/pkg/httputil"
	"github.com/Bbachelard/Option/pkg/validator"
)

// CartOptionHandler handles HTTP requests for cart item option endpoints.
type CartOptionHandler struct {
	service *service.CartOptionService
	logger  *slog.Logger
}

// NewCartOptionHandler creates a new cart option HTTP handler.
func NewCartOptionHandler(svc *service.CartOptionService, logger *slog.Logger) *CartOptionHandler {
	return &CartOptionHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ApplyOptionPricesRequest is the JSON request body for applying option prices
// to a cart item. An empty option_ids applies every attached option.
type ApplyOptionPricesRequest struct {
	OptionIDs []string `json:"option_ids" validate:"omitempty,dive,uuid"`
}

// PersistSelectionRequest is the JSON request body for recording an option
// selection. Customization carries the customer's form payload as-is; control
// keys are stripped before storage.
type PersistSelectionRequest struct {
	OptionID      string         `json:"option_id" validate:"required,uuid"`
	Customization map[string]any `json:"customization"`
}

// --- Handlers ---

// ApplyOptionPrices handles POST /api/v1/cart-items/{cartItemId}/options/apply
// @Summary Apply option prices to a cart item
// @Description Adds the option surcharge totals to the cart item prices
// @Tags cart-options
// @Accept json
// @Produce json
// @Param cartItemId path string true "Cart item UUID"
// @Param request body ApplyOptionPricesRequest true "Options to apply; empty applies all"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/cart-items/{cartItemId}/options/apply [post]
func (h *CartOptionHandler) ApplyOptionPrices(w http.ResponseWriter, r *http.Request) {
	cartItemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "cartItemId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ApplyOptionPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item, err := h.service.ApplyOptionPrices(r.Context(), cartItemID.String(), req.OptionIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// RemoveOptionPrices handles POST /api/v1/cart-items/{cartItemId}/options/remove
// @Summary Remove option prices from a cart item
// @Description Subtracts the recomputed option surcharge totals from the cart item prices
// @Tags cart-options
// @Produce json
// @Param cartItemId path string true "Cart item UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/cart-items/{cartItemId}/options/remove [post]
func (h *CartOptionHandler) RemoveOptionPrices(w http.ResponseWriter, r *http.Request) {
	cartItemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "cartItemId"))
	if !ok {
		return
	}

	item, err := h.service.RemoveOptionPrices(r.Context(), cartItemID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// PersistSelection handles POST /api/v1/cart-items/{cartItemId}/options/select
// @Summary Record an option selection on a cart item
// @Description Stores the selection with immutable price snapshots; an option not attached to the cart item's product is silently ignored
// @Tags cart-options
// @Accept json
// @Produce json
// @Param cartItemId path string true "Cart item UUID"
// @Param request body PersistSelectionRequest true "Selection to record"
// @Success 200 {object} map[string]interface{}
// @Success 204 "Option not associated with the product"
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/cart-items/{cartItemId}/options/select [post]
func (h *CartOptionHandler) PersistSelection(w http.ResponseWriter, r *http.Request) {
	cartItemID, ok := httputil.ParseUUID(w, chi.URLParam(r, "cartItemId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req PersistSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sel, err := h.service.PersistSelection(r.Context(), cartItemID.String(), req.OptionID, req.Customization)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if sel == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sel})
}
