package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Bbachelard/Option/internal/domain"
	pkgkafka "github.com/Bbachelard/Option/pkg/kafka"
)

// Kafka topic constants for option domain events.
const (
	TopicOptionAttached     = "ecommerce.product.option.attached"
	TopicOptionDetached     = "ecommerce.product.option.detached"
	TopicOptionPriceUpdated = "ecommerce.product.option.price_updated"
	TopicOptionCreated      = "ecommerce.option.created"
	TopicOptionUpdated      = "ecommerce.option.updated"
	TopicOptionDeleted      = "ecommerce.option.deleted"
	TopicCartItemRepriced   = "ecommerce.cart.item.repriced"
)

// Aggregate type constants.
const (
	AggregateTypeProductOption = "product_option"
	AggregateTypeOption        = "option"
	AggregateTypeCartItem      = "cart_item"
)

// Source identifier for events originating from the options service.
const SourceOptionsService = "options-service"

// OptionAttachedData is the payload for an option.attached event.
type OptionAttachedData struct {
	AssociationID string `json:"association_id"`
	ProductID     string `json:"product_id"`
	OptionID      string `json:"option_id"`
	Source        string `json:"source"`
}

// OptionDetachedData is the payload for an option.detached event.
type OptionDetachedData struct {
	AssociationID string `json:"association_id"`
	ProductID     string `json:"product_id"`
	OptionID      string `json:"option_id"`
	Forced        bool   `json:"forced"`
}

// OptionPriceUpdatedData is the payload for an option.price_updated event.
type OptionPriceUpdatedData struct {
	AssociationID string `json:"association_id"`
	ProductID     string `json:"product_id"`
	OptionID      string `json:"option_id"`
	Price         *int64 `json:"price,omitempty"`
	PromoPrice    *int64 `json:"promo_price,omitempty"`
	IsPromo       bool   `json:"is_promo"`
}

// OptionLifecycleData is the payload for option created/updated/deleted events.
type OptionLifecycleData struct {
	ID       string `json:"id"`
	Ref      string `json:"ref"`
	Title    string `json:"title"`
	IsOnline bool   `json:"is_online"`
}

// CartItemRepricedData is the payload for a cart.item.repriced event.
type CartItemRepricedData struct {
	CartItemID string `json:"cart_item_id"`
	ProductID  string `json:"product_id"`
	Price      int64  `json:"price"`
	PromoPrice int64  `json:"promo_price"`
	Reason     string `json:"reason"`
}

// Reprice reasons for CartItemRepricedData.
const (
	RepriceReasonOptionsApplied = "options_applied"
	RepriceReasonOptionsRemoved = "options_removed"
)

// Producer publishes option domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the options service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOptionAttached publishes an option.attached event.
func (p *Producer) PublishOptionAttached(ctx context.Context, assoc *domain.ProductOption) error {
	data := OptionAttachedData{
		AssociationID: assoc.ID,
		ProductID:     assoc.ProductID,
		OptionID:      assoc.OptionID,
		Source:        assoc.Source,
	}

	event, err := pkgkafka.NewEvent(TopicOptionAttached, assoc.ID, AggregateTypeProductOption, SourceOptionsService, data)
	if err != nil {
		return fmt.Errorf("create option.attached event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOptionAttached, event); err != nil {
		return fmt.Errorf("publish option.attached event: %w", err)
	}

	p.logger.DebugContext(ctx, "published option.attached event",
		slog.String("product_id", assoc.ProductID),
		slog.String("option_id", assoc.OptionID),
	)

	return nil
}

// PublishOptionDetached publishes an option.detached event.
func (p *Producer) PublishOptionDetached(ctx context.Context, assoc *domain.ProductOption, forced bool) error {
	data := OptionDetachedData{
		AssociationID: assoc.ID,
		ProductID:     assoc.ProductID,
		OptionID:      assoc.OptionID,
		Forced:        forced,
	}

	event, err := pkgkafka.NewEvent(TopicOptionDetached, assoc.ID, AggregateTypeProductOption, SourceOptionsService, data)
	if err != nil {
		return fmt.Errorf("create option.detached event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOptionDetached, event); err != nil {
		return fmt.Errorf("publish option.detached event: %w", err)
	}

	p.logger.DebugContext(ctx, "published option.detached event",
		slog.String("product_id", assoc.ProductID),
		slog.String("option_id", assoc.OptionID),
		slog.Bool("forced", forced),
	)

	return nil
}

// PublishOptionPriceUpdated publishes an option.price_updated event.
func (p *Producer) PublishOptionPriceUpdated(ctx context.Context, assoc *domain.ProductOption) error {
	data := OptionPriceUpdatedData{
		AssociationID: assoc.ID,
		ProductID:     assoc.ProductID,
		OptionID:      assoc.OptionID,
		Price:         assoc.Price,
		PromoPrice:    assoc.PromoPrice,
		IsPromo:       assoc.IsPromo,
	}

	event, err := pkgkafka.NewEvent(TopicOptionPriceUpdated, assoc.ID, AggregateTypeProductOption, SourceOptionsService, data)
	if err != nil {
		return fmt.Errorf("create option.price_updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOptionPriceUpdated, event); err != nil {
		return fmt.Errorf("publish option.price_updated event: %w", err)
	}

	return nil
}

// PublishOptionCreated publishes an option.created event.
func (p *Producer) PublishOptionCreated(ctx context.Context, option *domain.Product) error {
	return p.publishLifecycle(ctx, TopicOptionCreated, option)
}

// PublishOptionUpdated publishes an option.updated event.
func (p *Producer) PublishOptionUpdated(ctx context.Context, option *domain.Product) error {
	return p.publishLifecycle(ctx, TopicOptionUpdated, option)
}

// PublishOptionDeleted publishes an option.deleted event.
func (p *Producer) PublishOptionDeleted(ctx context.Context, id string) error {
	data := OptionLifecycleData{ID: id}

	event, err := pkgkafka.NewEvent(TopicOptionDeleted, id, AggregateTypeOption, SourceOptionsService, data)
	if err != nil {
		return fmt.Errorf("create option.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOptionDeleted, event); err != nil {
		return fmt.Errorf("publish option.deleted event: %w", err)
	}

	return nil
}

// PublishCartItemRepriced publishes a cart.item.repriced event.
func (p *Producer) PublishCartItemRepriced(ctx context.Context, item *domain.CartItem, reason string) error {
	data := CartItemRepricedData{
		CartItemID: item.ID,
		ProductID:  item.ProductID,
		Price:      item.Price,
		PromoPrice: item.PromoPrice,
		Reason:     reason,
	}

	event, err := pkgkafka.NewEvent(TopicCartItemRepriced, item.ID, AggregateTypeCartItem, SourceOptionsService, data)
	if err != nil {
		return fmt.Errorf("create cart.item.repriced event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartItemRepriced, event); err != nil {
		return fmt.Errorf("publish cart.item.repriced event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.item.repriced event",
		slog.String("cart_item_id", item.ID),
		slog.String("reason", reason),
	)

	return nil
}

func (p *Producer) publishLifecycle(ctx context.Context, topic string, option *domain.Product) error {
	data := OptionLifecycleData{
		ID:       option.ID,
		Ref:      option.Ref,
		Title:    option.Title,
		IsOnline: option.IsOnline,
	}

	event, err := pkgkafka.NewEvent(topic, option.ID, AggregateTypeOption, SourceOptionsService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	return nil
}
