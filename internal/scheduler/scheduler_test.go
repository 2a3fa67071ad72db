package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soulparking/dashboard/internal/audit"
	"github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/models"
	"github.com/soulparking/dashboard/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })
	return svc
}

func TestAddJob_Validation(t *testing.T) {
	svc := newTestService(t)
	noop := func(context.Context) {}

	if _, err := svc.AddJob(" ", "* * * * *", 0, noop); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("expected ErrEmptyJobName, got %v", err)
	}
	if _, err := svc.AddJob("job", "", 0, noop); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("expected ErrEmptyCronExpr, got %v", err)
	}
	if _, err := svc.AddJob("job", "not a cron", 0, noop); err == nil {
		t.Fatal("expected error for invalid cron")
	}
	job, err := svc.AddJob("job", "*/5 * * * *", time.Second, noop)
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if job.Name() != "job" {
		t.Fatalf("unexpected job name %q", job.Name())
	}

	var nilService *Service
	if _, err := nilService.AddJob("job", "* * * * *", 0, noop); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestStop_Idempotent(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.Start()
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

type fakePruner struct {
	removed int
	err     error
	calls   []time.Time
}

func (f *fakePruner) Prune(_ context.Context, now time.Time) (int, error) {
	f.calls = append(f.calls, now)
	return f.removed, f.err
}

func TestPruneSessions(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	pruner := &fakePruner{removed: 3}

	removed, err := PruneSessions(context.Background(), pruner, now)
	if err != nil || removed != 3 {
		t.Fatalf("expected 3 removed, got %d err=%v", removed, err)
	}
	if len(pruner.calls) != 1 || !pruner.calls[0].Equal(now) {
		t.Fatalf("unexpected prune calls %v", pruner.calls)
	}

	pruner.err = errors.New("locked")
	if _, err := PruneSessions(context.Background(), pruner, now); err == nil {
		t.Fatal("expected prune error")
	}
}

func TestPruneSessions_MemoryStore(t *testing.T) {
	store := auth.NewMemoryStore()
	ctx := context.Background()
	if err := store.Put(ctx, "user:a", []byte("{}"), time.Nanosecond); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, "user:b", []byte("{}"), 0); err != nil {
		t.Fatalf("Put: %v", err)
	}

	removed, err := PruneSessions(ctx, store, time.Now().Add(time.Minute))
	if err != nil || removed != 1 {
		t.Fatalf("expected one expired session removed, got %d err=%v", removed, err)
	}
}

func TestRegisterJobs_RequireDependencies(t *testing.T) {
	svc := newTestService(t)
	if err := RegisterSessionPruneJob(svc, nil); err == nil {
		t.Fatal("expected error without pruner")
	}
	if err := RegisterDailyReportJob(svc, "0 6 * * *", ReportJob{}); err == nil {
		t.Fatal("expected error without sender")
	}
	if err := RegisterSessionPruneJob(svc, &fakePruner{}); err != nil {
		t.Fatalf("RegisterSessionPruneJob: %v", err)
	}
	if err := RegisterDailyReportJob(svc, "0 6 * * *", ReportJob{Sender: &fakeSender{}, Recipients: []string{"ops@soulparking.co.id"}}); err != nil {
		t.Fatalf("RegisterDailyReportJob: %v", err)
	}
}

type fakeSender struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
	err      error
}

func (f *fakeSender) Send(ctx context.Context, recipient, subject, body string) error {
	return f.SendFrom(ctx, recipient, subject, body, "")
}

func (f *fakeSender) SendFrom(_ context.Context, _, subject, body, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, body)
	return nil
}

func TestReportJob_Run(t *testing.T) {
	database := testutil.NewTestDB(t)
	sender := &fakeSender{}
	job := ReportJob{
		AppName:    "SoulParking",
		Recipients: []string{"ops@soulparking.co.id"},
		Sender:     sender,
		Recorder:   audit.NewRecorder(database.Queries, nil),
		Location:   time.UTC,
	}

	now := time.Date(2023, time.October, 27, 6, 0, 0, 0, time.UTC)
	if err := job.Run(context.Background(), now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.subjects) != 1 || sender.subjects[0] != "SoulParking parking report 2023-10-26" {
		t.Fatalf("unexpected subjects %v", sender.subjects)
	}
	if !strings.Contains(sender.bodies[0], "2023-10-26,12500000,2450,94%") {
		t.Fatalf("expected report row in body:\n%s", sender.bodies[0])
	}

	rows, err := database.Queries.ListActivity(context.Background(), db.ListActivityParams{Type: models.ActivitySystem, Search: "Daily report", Limit: 5})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(rows) != 1 || rows[0].ActorName != audit.SystemActorName {
		t.Fatalf("expected daily report activity, got %+v", rows)
	}
}

func TestReportJob_RunRecordsFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	job := ReportJob{
		AppName:    "SoulParking",
		Recipients: []string{"ops@soulparking.co.id"},
		Sender:     &fakeSender{err: errors.New("throttled")},
		Recorder:   audit.NewRecorder(database.Queries, nil),
	}

	if err := job.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("expected send failure")
	}
	rows, err := database.Queries.ListActivity(context.Background(), db.ListActivityParams{Search: "failed", Limit: 5})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected failure recorded, got %+v", rows)
	}
}
