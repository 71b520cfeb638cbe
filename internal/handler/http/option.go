package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/repository"
	"github.com/Bbachelard/Option/internal/service"
	"github.com/Bbachelard/Option/pkg/httputil"
	"github.com/Bbachelard/Option/pkg/validator"
)

// OptionHandler handles HTTP requests for the option catalog endpoints.
type OptionHandler struct {
	service *service.OptionService
	logger  *slog.Logger
}

// NewOptionHandler creates a new option HTTP handler.
func NewOptionHandler(svc *service.OptionService, logger *slog.Logger) *OptionHandler {
	return &OptionHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AttachOptionRequest is the JSON request body for attaching an option to a product.
type AttachOptionRequest struct {
	OptionID string `json:"option_id" validate:"required,uuid"`
	Source   string `json:"source" validate:"omitempty,oneof=ADDED_BY_PRODUCT ADDED_BY_OPTION"`
}

// UpsertOptionPriceRequest is the JSON request body for setting an option price override.
type UpsertOptionPriceRequest struct {
	Price      *int64 `json:"price" validate:"omitempty,gte=0"`
	PromoPrice *int64 `json:"promo_price" validate:"omitempty,gte=0"`
}

// CreateOptionRequest is the JSON request body for creating an option product.
type CreateOptionRequest struct {
	Ref       string  `json:"ref" validate:"required,min=1,max=255"`
	Title     string  `json:"title" validate:"required,min=1,max=500"`
	IsOnline  bool    `json:"is_online"`
	TaxRuleID *string `json:"tax_rule_id" validate:"omitempty,uuid"`
	Locale    string  `json:"locale" validate:"omitempty,min=2,max=10"`
}

// UpdateOptionRequest is the JSON request body for updating an option product.
type UpdateOptionRequest struct {
	Ref       *string `json:"ref" validate:"omitempty,min=1,max=255"`
	Title     *string `json:"title" validate:"omitempty,min=1,max=500"`
	IsOnline  *bool   `json:"is_online"`
	TaxRuleID *string `json:"tax_rule_id" validate:"omitempty,uuid"`
}

// --- Handlers ---

// ListAvailableOptions handles GET /api/v1/products/{productId}/options
// @Summary List options available for a product
// @Description Returns the option products attached to a product, after check subscribers ran
// @Tags options
// @Produce json
// @Param productId path string true "Product UUID"
// @Param option_id query string false "Restrict the result to a single option UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{productId}/options [get]
func (h *OptionHandler) ListAvailableOptions(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var optionID *string
	if v := r.URL.Query().Get("option_id"); v != "" {
		id, ok := httputil.ParseUUID(w, v)
		if !ok {
			return
		}
		s := id.String()
		optionID = &s
	}

	options, err := h.service.AvailableOptions(r.Context(), productID.String(), optionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: options})
}

// AttachOption handles POST /api/v1/products/{productId}/options
// @Summary Attach an option to a product
// @Description Attaches an option product to a product; attaching an existing pair is a no-op
// @Tags options
// @Accept json
// @Produce json
// @Param productId path string true "Product UUID"
// @Param request body AttachOptionRequest true "Option to attach"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{productId}/options [post]
func (h *OptionHandler) AttachOption(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req AttachOptionRequest
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

	source := req.Source
	if source == "" {
		source = domain.SourceAddedByProduct
	}

	assoc, err := h.service.AttachOption(r.Context(), productID.String(), req.OptionID, source)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: assoc})
}

// DetachOption handles DELETE /api/v1/products/{productId}/options/{associationId}
// @Summary Detach an option from a product
// @Description Removes an association; refused while cart items reference it unless forced
// @Tags options
// @Produce json
// @Param productId path string true "Product UUID"
// @Param associationId path string true "Association UUID"
// @Param force query bool false "Detach even when cart items reference the association"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/products/{productId}/options/{associationId} [delete]
func (h *OptionHandler) DetachOption(w http.ResponseWriter, r *http.Request) {
	associationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "associationId"))
	if !ok {
		return
	}

	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "force must be a boolean"},
			})
			return
		}
		force = parsed
	}

	if err := h.service.DetachOption(r.Context(), associationID.String(), force); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": associationID.String(), "status": "detached"}})
}

// UpsertOptionPrice handles PUT /api/v1/products/{productId}/options/{optionId}/price
// @Summary Set the price override of a product option
// @Description Sets or updates the association price override, creating the association when absent
// @Tags options
// @Accept json
// @Produce json
// @Param productId path string true "Product UUID"
// @Param optionId path string true "Option UUID"
// @Param request body UpsertOptionPriceRequest true "Price override in cents"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products/{productId}/options/{optionId}/price [put]
func (h *OptionHandler) UpsertOptionPrice(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}
	optionID, ok := httputil.ParseUUID(w, chi.URLParam(r, "optionId"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpsertOptionPriceRequest
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

	assoc, err := h.service.UpsertOptionPrice(r.Context(), productID.String(), optionID.String(), req.Price, req.PromoPrice)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: assoc})
}

// ListOptions handles GET /api/v1/options
// @Summary List option products
// @Description Returns the paginated admin options table rows
// @Tags options
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Param search query string false "Search in title and reference"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/options [get]
func (h *OptionHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	filter := repository.OptionFilter{
		Page:    1,
		PerPage: 20,
	}

	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return
		}
		filter.Page = page
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return
		}
		filter.PerPage = perPage
	}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}

	rows, total, err := h.service.ListOptions(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(rows, total, filter.Page, filter.PerPage))
}

// ListColumns handles GET /api/v1/options/columns
// @Summary Describe the options table columns
// @Description Returns the column metadata of the options table; storage column names only with admin=true
// @Tags options
// @Produce json
// @Param admin query bool false "Include internal storage column names"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/options/columns [get]
func (h *OptionHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	admin := false
	if v := r.URL.Query().Get("admin"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "admin must be a boolean"},
			})
			return
		}
		admin = parsed
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.ColumnDefinitions(admin)})
}

// GetOptionCategory handles GET /api/v1/options/category
// @Summary Resolve the option category
// @Description Returns the hidden category grouping option products, creating it when absent
// @Tags options
// @Produce json
// @Param locale query string false "Locale for title lookup and creation" default(en_US)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/options/category [get]
func (h *OptionHandler) GetOptionCategory(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = "en_US"
	}

	category, err := h.service.GetOrCreateOptionCategory(r.Context(), locale)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}

// CreateOption handles POST /api/v1/options
// @Summary Create an option product
// @Description Creates an option product and makes sure the option category exists
// @Tags options
// @Accept json
// @Produce json
// @Param request body CreateOptionRequest true "Option to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/options [post]
func (h *OptionHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateOptionRequest
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

	input := &service.CreateOptionInput{
		Ref:       req.Ref,
		Title:     req.Title,
		IsOnline:  req.IsOnline,
		TaxRuleID: req.TaxRuleID,
		Locale:    req.Locale,
	}

	option, err := h.service.CreateOption(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: option})
}

// UpdateOption handles PUT /api/v1/options/{id}
// @Summary Update an option product
// @Description Partially updates an option product — all fields are optional
// @Tags options
// @Accept json
// @Produce json
// @Param id path string true "Option UUID"
// @Param request body UpdateOptionRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/options/{id} [put]
func (h *OptionHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateOptionRequest
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

	input := &service.UpdateOptionInput{
		Ref:       req.Ref,
		Title:     req.Title,
		IsOnline:  req.IsOnline,
		TaxRuleID: req.TaxRuleID,
	}

	option, err := h.service.UpdateOption(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: option})
}

// DeleteOption handles DELETE /api/v1/options/{id}
// @Summary Delete an option product
// @Description Deletes an option product and every association referencing it
// @Tags options
// @Produce json
// @Param id path string true "Option UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/options/{id} [delete]
func (h *OptionHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteOption(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}
