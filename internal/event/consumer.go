package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgkafka "github.com/Bbachelard/Option/pkg/kafka"
)

// Topic consumed from the product service.
const TopicProductDeleted = "ecommerce.product.deleted"

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// CascadeRemover removes everything the options service holds about a product.
type CascadeRemover interface {
	RemoveProductAssociations(ctx context.Context, productID string) error
}

// Consumer handles product lifecycle events that cascade into this service.
type Consumer struct {
	remover CascadeRemover
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the options service.
func NewConsumer(remover CascadeRemover, logger *slog.Logger) *Consumer {
	return &Consumer{
		remover: remover,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductDeleted:
		return c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleProductDeleted drops every association the deleted product appears in,
// whether as owner or as option.
func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}

	if err := c.remover.RemoveProductAssociations(ctx, data.ID); err != nil {
		return fmt.Errorf("cascade remove associations: %w", err)
	}

	c.logger.InfoContext(ctx, "removed associations for deleted product",
		slog.String("product_id", data.ID),
	)

	return nil
}
