package commands

import (
	"encoding/json"
	"time"

	"rmas/contexts/membership/application-service/ports"
)

const (
	acceptedEventType     = "membership.application_accepted"
	rejectedEventType     = "membership.application_rejected"
	roleAssignedEventType = "membership.role_assigned"
)

func newApplicationEnvelope(
	eventID string,
	eventType string,
	applicationID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "application-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "application_id",
		PartitionKey:     applicationID,
		Data:             payload,
	}, nil
}
