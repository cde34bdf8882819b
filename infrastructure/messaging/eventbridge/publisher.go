package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"finagotchi-backend/application/ports"
	"finagotchi-backend/domain/events"
)

const eventSource = "finagotchi.backend"

// EventBridgePublisher implements the EventPublisher interface using
// AWS EventBridge
type EventBridgePublisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewEventBridgePublisher creates a new EventBridge publisher
func NewEventBridgePublisher(
	client *eventbridge.Client,
	eventBusName string,
	logger *zap.Logger,
) ports.EventPublisher {
	return &EventBridgePublisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish sends a single event to EventBridge
func (p *EventBridgePublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBusName),
		Source:       aws.String(eventSource),
		DetailType:   aws.String(event.EventType()),
		Detail:       aws.String(string(eventData)),
		Time:         aws.Time(event.OccurredAt()),
		Resources: []string{
			fmt.Sprintf("arn:aws:finagotchi::%s", event.AggregateID()),
		},
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, failed := range result.Entries {
			if failed.ErrorCode != nil {
				p.logger.Error("Failed to publish event",
					zap.String("eventType", event.EventType()),
					zap.String("errorCode", aws.ToString(failed.ErrorCode)),
					zap.String("errorMessage", aws.ToString(failed.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("EventBridge rejected the event")
	}

	p.logger.Debug("Published event",
		zap.String("eventType", event.EventType()),
		zap.String("aggregateID", event.AggregateID()),
	)
	return nil
}
