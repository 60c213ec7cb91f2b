package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/commerce-service/internal/inventory"
	"github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/pkg/broker"
	"github.com/fekuna/commerce-service/pkg/logger"
	"go.uber.org/zap"
)

// InventoryListener deducts stock for orders placed through external sales
// channels (POS, marketplaces) that publish to the channels topic. Orders
// placed through this service's own checkout deduct stock synchronously and
// never pass through here.
type InventoryListener struct {
	consumer *broker.KafkaConsumer
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewInventoryListener(consumer *broker.KafkaConsumer, uc inventory.UseCase, log logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("starting inventory channel listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping inventory channel listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type ChannelOrderEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   ChannelOrderPayload `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

type ChannelOrderPayload struct {
	OrderID string             `json:"order_id"`
	Channel string             `json:"channel"`
	Items   []ChannelOrderItem `json:"items"`
}

type ChannelOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event ChannelOrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal channel event", zap.Error(err))
		return
	}

	if event.EventType != "ChannelOrderCreated" {
		return
	}

	l.logger.Info("processing channel order",
		zap.String("order_id", event.Payload.OrderID),
		zap.String("channel", event.Payload.Channel))

	for _, item := range event.Payload.Items {
		_, err := l.uc.RecordTransaction(ctx, &dto.RecordTransactionInput{
			ProductID:       item.ProductID,
			TransactionType: model.TransactionStockOut,
			Quantity:        -item.Quantity,
			Notes:           "channel sale: " + event.Payload.Channel,
			ReferenceType:   "channel",
			ReferenceID:     event.Payload.OrderID,
			CreatedBy:       "system",
		})
		if err != nil {
			l.logger.Error("failed to deduct stock for channel order item",
				zap.String("order_id", event.Payload.OrderID),
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}
}
