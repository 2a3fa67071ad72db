package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/events"
	"github.com/soulparking/dashboard/internal/models"
	"github.com/soulparking/dashboard/internal/testutil"
)

func newTestRecorder(t *testing.T, publisher events.Publisher) (*Recorder, *db.DB) {
	t.Helper()

	database := testutil.NewTestDB(t)
	recorder := NewRecorder(database.Queries, publisher)
	recorder.now = func() time.Time { return time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC) }
	return recorder, database
}

func TestRecord_StoresAndPublishes(t *testing.T) {
	publisher := &events.MemoryPublisher{}
	recorder, database := newTestRecorder(t, publisher)
	ctx := context.Background()

	user := auth.User{Email: auth.AdminEmail, Name: "System Admin", Role: auth.RoleAdmin}
	activity, err := recorder.Record(ctx, ByUser(user, models.ActivityAuth, "Login", "Signed in"))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if activity.ActorName != "System Admin" || activity.ActorRole != auth.RoleAdmin {
		t.Fatalf("unexpected actor %+v", activity)
	}

	published := publisher.Events()
	if len(published) != 1 {
		t.Fatalf("expected one event, got %d", len(published))
	}
	if published[0].ActivityID != activity.ID || published[0].RoutingKey() != "activity.auth" {
		t.Fatalf("unexpected event %+v", published[0])
	}

	rows, err := database.Queries.ListActivity(ctx, db.ListActivityParams{Type: models.ActivityAuth, Limit: 1})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != activity.ID {
		t.Fatalf("expected newest auth entry to be the recorded one, got %+v", rows)
	}
}

func TestRecord_PublishFailureDoesNotFail(t *testing.T) {
	publisher := &events.MemoryPublisher{Err: errors.New("broker down")}
	recorder, _ := newTestRecorder(t, publisher)

	if _, err := recorder.Record(context.Background(), BySystem("Backup Completed", "ok")); err != nil {
		t.Fatalf("expected publish failure to be tolerated, got %v", err)
	}
}

func TestRecord_Validation(t *testing.T) {
	recorder, _ := newTestRecorder(t, nil)
	ctx := context.Background()

	if _, err := recorder.Record(ctx, Entry{Action: "x", Type: "billing"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if _, err := recorder.Record(ctx, Entry{Type: models.ActivityUser}); err == nil {
		t.Fatal("expected error for missing action")
	}
}

func TestByUser_FallsBackToEmail(t *testing.T) {
	entry := ByUser(auth.User{Email: "staff@soulparking.co.id", Role: auth.RoleUser}, models.ActivityAuth, "Logout", "")
	if entry.ActorName != "staff@soulparking.co.id" {
		t.Fatalf("expected email as actor name, got %q", entry.ActorName)
	}
}
