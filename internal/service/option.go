package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Bbachelard/Option/internal/domain"
	"github.com/Bbachelard/Option/internal/event"
	"github.com/Bbachelard/Option/internal/hook"
	"github.com/Bbachelard/Option/internal/repository"
	apperrors "github.com/Bbachelard/Option/pkg/errors"
)

// optionCategorySettingKey stores the id of the hidden category that groups
// option products.
const optionCategorySettingKey = "option_category_id"

// optionCategoryTitle is the localized title the category is looked up and
// created under.
const optionCategoryTitle = "Options"

// OptionService implements the business logic for the option catalog: the
// option category bootstrap, product/option associations, price overrides and
// the option product lifecycle.
type OptionService struct {
	options    repository.ProductOptionRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	settings   repository.SettingRepository
	cache      repository.AvailableOptionsCache
	hooks      *hook.Registry
	lifecycle  ProductLifecycle
	inUse      InUseChecker
	producer   *event.Producer
	logger     *slog.Logger
}

// NewOptionService creates a new option catalog service.
func NewOptionService(
	options repository.ProductOptionRepository,
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	settings repository.SettingRepository,
	cache repository.AvailableOptionsCache,
	hooks *hook.Registry,
	lifecycle ProductLifecycle,
	inUse InUseChecker,
	producer *event.Producer,
	logger *slog.Logger,
) *OptionService {
	return &OptionService{
		options:    options,
		products:   products,
		categories: categories,
		settings:   settings,
		cache:      cache,
		hooks:      hooks,
		lifecycle:  lifecycle,
		inUse:      inUse,
		producer:   producer,
		logger:     logger,
	}
}

// GetOrCreateOptionCategory resolves the hidden category grouping option
// products. Resolution order: configured id, lookup by localized title, create.
// Whichever path succeeds, the id ends up stored in the settings so later
// calls take the first path.
func (s *OptionService) GetOrCreateOptionCategory(ctx context.Context, locale string) (*domain.Category, error) {
	if id, err := s.settings.Get(ctx, optionCategorySettingKey); err == nil {
		category, err := s.categories.GetByID(ctx, id)
		if err == nil {
			return category, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get configured option category: %w", err)
		}
		// Configured id points at a deleted category; fall through and
		// re-resolve.
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("read option category setting: %w", err)
	}

	category, err := s.categories.GetByTitle(ctx, optionCategoryTitle, locale)
	if err == nil {
		if err := s.settings.Set(ctx, optionCategorySettingKey, category.ID); err != nil {
			return nil, fmt.Errorf("store option category id: %w", err)
		}
		return category, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup option category by title: %w", err)
	}

	now := time.Now().UTC()
	category = &domain.Category{
		ID:        uuid.New().String(),
		Title:     optionCategoryTitle,
		Locale:    locale,
		IsVisible: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create option category: %w", err)
	}
	if err := s.settings.Set(ctx, optionCategorySettingKey, category.ID); err != nil {
		return nil, fmt.Errorf("store option category id: %w", err)
	}

	s.logger.InfoContext(ctx, "option category created",
		slog.String("category_id", category.ID),
		slog.String("locale", locale),
	)

	return category, nil
}

// AvailableOptions returns the option products attachable choices for a
// product. Subscribers of the option check hook may veto the whole set (empty
// result) or narrow it. When optionID is set, only that option is considered.
// The raw option product set is cached per product; the hook runs on every
// call, cache hit or not, so subscribers always get their say.
func (s *OptionService) AvailableOptions(ctx context.Context, productID string, optionID *string) ([]domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product for available options: %w", err)
	}

	fullSet := optionID == nil

	var optionProducts []domain.Product
	fromCache := false

	if fullSet {
		cached, hit, err := s.cache.Get(ctx, productID)
		if err != nil {
			s.logger.WarnContext(ctx, "available options cache read failed",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		} else if hit {
			optionProducts = cached
			fromCache = true
		}
	}

	if !fromCache {
		assocs, err := s.options.ListByProduct(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("list associations: %w", err)
		}

		ids := make([]string, 0, len(assocs))
		for _, assoc := range assocs {
			if optionID != nil && assoc.OptionID != *optionID {
				continue
			}
			ids = append(ids, assoc.OptionID)
		}

		optionProducts, err = s.products.ListByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load option products: %w", err)
		}

		if fullSet {
			if err := s.cache.Set(ctx, productID, optionProducts); err != nil {
				s.logger.WarnContext(ctx, "available options cache write failed",
					slog.String("product_id", productID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	check := &hook.OptionCheck{
		Product: product,
		Options: optionProducts,
		IsValid: true,
	}
	if err := s.hooks.DispatchOptionCheck(ctx, check); err != nil {
		return nil, fmt.Errorf("dispatch option check: %w", err)
	}

	result := check.Options
	if !check.IsValid {
		result = []domain.Product{}
	}
	if result == nil {
		result = []domain.Product{}
	}

	return result, nil
}

// AttachOption attaches an option product to a product. The operation is
// idempotent: attaching an already attached pair returns the existing
// association unchanged.
func (s *OptionService) AttachOption(ctx context.Context, productID, optionID, source string) (*domain.ProductOption, error) {
	if !domain.IsValidSource(source) {
		return nil, apperrors.InvalidInput("invalid association source")
	}
	if productID == optionID {
		return nil, apperrors.InvalidInput("a product cannot be its own option")
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product for attach: %w", err)
	}
	if _, err := s.products.GetByID(ctx, optionID); err != nil {
		return nil, fmt.Errorf("get option for attach: %w", err)
	}

	assoc, err := s.options.Attach(ctx, productID, optionID, source)
	if err != nil {
		return nil, fmt.Errorf("attach option: %w", err)
	}

	s.invalidateCache(ctx, productID)

	if err := s.producer.PublishOptionAttached(ctx, assoc); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish option.attached event",
			slog.String("association_id", assoc.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "option attached",
		slog.String("product_id", productID),
		slog.String("option_id", optionID),
		slog.String("source", source),
	)

	return assoc, nil
}

// DetachOption removes an association. Without force, an association still
// referenced by cart item selections is refused with AssociationInUse.
func (s *OptionService) DetachOption(ctx context.Context, associationID string, force bool) error {
	assoc, err := s.options.GetByID(ctx, associationID)
	if err != nil {
		return fmt.Errorf("get association for detach: %w", err)
	}

	if !force {
		inUse, err := s.inUse.InUse(ctx, associationID)
		if err != nil {
			return fmt.Errorf("check association in use: %w", err)
		}
		if inUse {
			return apperrors.AssociationInUse(associationID)
		}
	}

	if err := s.options.Detach(ctx, associationID); err != nil {
		return fmt.Errorf("detach option: %w", err)
	}

	s.invalidateCache(ctx, assoc.ProductID)

	if err := s.producer.PublishOptionDetached(ctx, assoc, force); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish option.detached event",
			slog.String("association_id", assoc.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "option detached",
		slog.String("association_id", associationID),
		slog.Bool("forced", force),
	)

	return nil
}

// UpsertOptionPrice sets or updates the price override of an association,
// creating the association when absent. The promo flag follows the presence of
// a promo price.
func (s *OptionService) UpsertOptionPrice(ctx context.Context, productID, optionID string, price, promoPrice *int64) (*domain.ProductOption, error) {
	if price != nil && *price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if promoPrice != nil && *promoPrice < 0 {
		return nil, apperrors.InvalidInput("promo price must not be negative")
	}

	assoc, err := s.options.UpsertPrice(ctx, productID, optionID, price, promoPrice)
	if err != nil {
		return nil, fmt.Errorf("upsert option price: %w", err)
	}

	s.invalidateCache(ctx, productID)

	if err := s.producer.PublishOptionPriceUpdated(ctx, assoc); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish option.price_updated event",
			slog.String("association_id", assoc.ID),
			slog.String("error", err.Error()),
		)
	}

	return assoc, nil
}

// CreateOptionInput holds the parameters for creating an option product.
type CreateOptionInput struct {
	Ref       string
	Title     string
	IsOnline  bool
	TaxRuleID *string
	Locale    string
}

// UpdateOptionInput holds the parameters for updating an option product.
type UpdateOptionInput struct {
	Ref       *string
	Title     *string
	IsOnline  *bool
	TaxRuleID *string
}

// CreateOption creates a new option product through the catalog lifecycle and
// makes sure the option category exists.
func (s *OptionService) CreateOption(ctx context.Context, input *CreateOptionInput) (*domain.Product, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("option title is required")
	}
	if input.Ref == "" {
		return nil, apperrors.InvalidInput("option ref is required")
	}

	locale := input.Locale
	if locale == "" {
		locale = "en_US"
	}
	if _, err := s.GetOrCreateOptionCategory(ctx, locale); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	option := &domain.Product{
		ID:        uuid.New().String(),
		Ref:       input.Ref,
		Title:     input.Title,
		IsOnline:  input.IsOnline,
		TaxRuleID: input.TaxRuleID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.lifecycle.CreateProduct(ctx, option); err != nil {
		return nil, fmt.Errorf("create option product: %w", err)
	}

	if err := s.producer.PublishOptionCreated(ctx, option); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish option.created event",
			slog.String("option_id", option.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "option created",
		slog.String("option_id", option.ID),
		slog.String("ref", option.Ref),
	)

	return option, nil
}

// UpdateOption modifies an option product through the catalog lifecycle. When
// the lifecycle reports that no product was affected, NoProductUpdated is
// returned.
func (s *OptionService) UpdateOption(ctx context.Context, id string, input *UpdateOptionInput) (*domain.Product, error) {
	option, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get option for update: %w", err)
	}

	if input.Ref != nil {
		option.Ref = *input.Ref
	}
	if input.Title != nil {
		option.Title = *input.Title
	}
	if input.IsOnline != nil {
		option.IsOnline = *input.IsOnline
	}
	if input.TaxRuleID != nil {
		option.TaxRuleID = input.TaxRuleID
	}

	affected, err := s.lifecycle.UpdateProduct(ctx, option)
	if err != nil {
		return nil, fmt.Errorf("update option product: %w", err)
	}
	if affected == 0 {
		return nil, apperrors.NoProductUpdated()
	}

	if err := s.producer.PublishOptionUpdated(ctx, option); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish option.updated event",
			slog.String("option_id", option.ID),
			slog.String("error", err.Error()),
		)
	}

	return option, nil
}

// DeleteOption removes an option product and every association referencing it.
func (s *OptionService) DeleteOption(ctx context.Context, id string) error {
	if err := s.lifecycle.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete option product: %w", err)
	}

	removed, err := s.options.DeleteByOption(ctx, id)
	if err != nil {
		return fmt.Errorf("delete associations of option: %w", err)
	}

	if err := s.producer.PublishOptionDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish option.deleted event",
			slog.String("option_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "option deleted",
		slog.String("option_id", id),
		slog.Int64("associations_removed", removed),
	)

	return nil
}

// RemoveProductAssociations drops every association a deleted product appears
// in, as owner or as option. Called from the product.deleted event consumer.
func (s *OptionService) RemoveProductAssociations(ctx context.Context, productID string) error {
	asOwner, err := s.options.DeleteByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("delete associations by product: %w", err)
	}

	asOption, err := s.options.DeleteByOption(ctx, productID)
	if err != nil {
		return fmt.Errorf("delete associations by option: %w", err)
	}

	s.invalidateCache(ctx, productID)

	s.logger.InfoContext(ctx, "cascade removed associations",
		slog.String("product_id", productID),
		slog.Int64("as_owner", asOwner),
		slog.Int64("as_option", asOption),
	)

	return nil
}

// ListOptions returns the admin options table rows with the total count.
func (s *OptionService) ListOptions(ctx context.Context, filter repository.OptionFilter) ([]domain.OptionListRow, int, error) {
	rows, total, err := s.products.ListOptionRows(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list options: %w", err)
	}
	return rows, total, nil
}

// ColumnDefinitions returns the admin options table column metadata. Internal
// storage column names are only exposed to admin callers.
func (s *OptionService) ColumnDefinitions(includePrivate bool) []domain.ColumnDefinition {
	columns := []domain.ColumnDefinition{
		{Name: "id", Title: "ID", Orderable: true, Searchable: false, ORMName: "products.id"},
		{Name: "title", Title: "Title", Orderable: true, Searchable: true, ORMName: "products.title"},
		{Name: "ref", Title: "Reference", Orderable: true, Searchable: true, ORMName: "products.ref"},
		{Name: "price", Title: "Price", Orderable: true, Searchable: false, ORMName: "product_prices.price"},
		{Name: "is_online", Title: "Online", Orderable: false, Searchable: false, ORMName: "products.is_online"},
	}

	if !includePrivate {
		for i := range columns {
			columns[i].ORMName = ""
		}
	}

	return columns
}

func (s *OptionService) invalidateCache(ctx context.Context, productID string) {
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "available options cache invalidation failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
