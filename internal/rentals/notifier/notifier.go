package notifier

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"fairway/pkg/config"
	"fairway/pkg/kafka"
	kafkaconfig "fairway/pkg/kafka/config"
	kafkamiddleware "fairway/pkg/kafka/middleware"
	"fairway/pkg/model"
)

// KafkaNotifier publishes rental lifecycle events keyed by cart ID, so the
// event stream for a single cart stays ordered.
type KafkaNotifier struct {
	producer *kafka.Producer
	cfg      *config.Config
}

func NewKafkaNotifier(cfg *config.Config) (*KafkaNotifier, error) {
	kcfg, err := kafkaconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kafka config: %w", err)
	}

	producer, err := kafka.NewProducer(kcfg, cfg.RentalEventsTopic, cfg.RentalEventsDLQTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to create rental events producer: %w", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))

	return &KafkaNotifier{
		producer: producer,
		cfg:      cfg,
	}, nil
}

func (n *KafkaNotifier) RentalConfirmed(ctx context.Context, rental *model.Rental) error {
	return n.publish(ctx, model.EventRentalConfirmed, rental)
}

func (n *KafkaNotifier) RentalCancelled(ctx context.Context, rental *model.Rental) error {
	return n.publish(ctx, model.EventRentalCancelled, rental)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType string, rental *model.Rental) error {
	event := model.RentalEvent{
		Type:               eventType,
		RentalID:           rental.ID,
		CartID:             rental.CartID,
		RenterName:         rental.RenterName,
		Holes:              rental.Holes,
		StartTime:          rental.StartTime,
		BlockEnd:           rental.BlockEnd,
		Price:              rental.Price,
		NotificationMethod: rental.NotificationMethod,
		OccurredAt:         time.Now().UTC(),
	}
	switch rental.NotificationMethod {
	case model.NotifyBySMS:
		event.Phone = rental.Phone
	case model.NotifyByEmail:
		event.Email = rental.Email
	}

	msg := kafka.NewMessage().
		WithKey(strconv.Itoa(rental.CartID)).
		WithValue(event).
		WithEventType(eventType).
		WithSource("fairway-rentals").
		Build()

	return n.producer.Publish(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
