// Package audit appends entries to the activity log and announces them as events.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/events"
	"github.com/soulparking/dashboard/internal/models"
)

const (
	SystemActorName = "System"
	SystemActorRole = "system"
)

type Entry struct {
	ActorName string
	ActorRole string
	Action    string
	Type      string
	Details   string
}

// ByUser returns an entry attributed to a signed-in user.
func ByUser(user auth.User, activityType, action, details string) Entry {
	name := user.Name
	if name == "" {
		name = user.Email
	}
	return Entry{ActorName: name, ActorRole: user.Role, Action: action, Type: activityType, Details: details}
}

// BySystem returns an entry attributed to background jobs.
func BySystem(action, details string) Entry {
	return Entry{
		ActorName: SystemActorName,
		ActorRole: SystemActorRole,
		Action:    action,
		Type:      models.ActivitySystem,
		Details:   details,
	}
}

type Recorder struct {
	queries   *db.Queries
	publisher events.Publisher
	now       func() time.Time
}

// NewRecorder returns a recorder writing to queries. A nil publisher disables events.
func NewRecorder(queries *db.Queries, publisher events.Publisher) *Recorder {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Recorder{queries: queries, publisher: publisher, now: time.Now}
}

// Record stores entry and publishes it. Publishing failures are logged and
// do not fail the call; the activity log is the source of truth.
func (r *Recorder) Record(ctx context.Context, entry Entry) (models.Activity, error) {
	if !models.IsActivityType(entry.Type) {
		return models.Activity{}, fmt.Errorf("unknown activity type %q", entry.Type)
	}
	if entry.Action == "" {
		return models.Activity{}, fmt.Errorf("activity action is required")
	}

	row, err := r.queries.CreateActivity(ctx, db.CreateActivityParams{
		ActorName: entry.ActorName,
		ActorRole: entry.ActorRole,
		Action:    entry.Action,
		Type:      entry.Type,
		Details:   entry.Details,
		CreatedAt: r.now().Unix(),
	})
	if err != nil {
		return models.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	activity := models.ActivityFromDB(row)

	event := events.NewActivityEvent(activity.ID, activity.ActorName, activity.ActorRole,
		activity.Action, activity.Type, activity.Details, activity.CreatedAt)
	if err := r.publisher.Publish(ctx, event); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Int64("activity_id", activity.ID).
			Str("type", activity.Type).
			Msg("Failed to publish activity event")
	}

	return activity, nil
}
