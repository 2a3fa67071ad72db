package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityEvent is published for every entry appended to the activity log.
type ActivityEvent struct {
	ID         string    `json:"id"`
	ActivityID int64     `json:"activityId"`
	ActorName  string    `json:"actorName"`
	ActorRole  string    `json:"actorRole"`
	Action     string    `json:"action"`
	Type       string    `json:"type"`
	Details    string    `json:"details"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewActivityEvent stamps a fresh event id.
func NewActivityEvent(activityID int64, actorName, actorRole, action, activityType, details string, occurredAt time.Time) ActivityEvent {
	return ActivityEvent{
		ID:         uuid.NewString(),
		ActivityID: activityID,
		ActorName:  actorName,
		ActorRole:  actorRole,
		Action:     action,
		Type:       activityType,
		Details:    details,
		OccurredAt: occurredAt,
	}
}

// RoutingKey is "activity.<type>", so consumers can bind to a single type.
func (e ActivityEvent) RoutingKey() string {
	return "activity." + e.Type
}

func (e ActivityEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ActivityEventFromJSON(data []byte) (ActivityEvent, error) {
	var event ActivityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ActivityEvent{}, err
	}
	return event, nil
}
