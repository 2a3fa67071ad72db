package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/testutil"
)

var _ auth.Store = (*db.SessionStore)(nil)
var _ auth.Pruner = (*db.SessionStore)(nil)

func TestMigrationsSeedData(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	users, err := database.Queries.ListManagedUsers(ctx, "")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 4 {
		t.Fatalf("expected 4 seeded users, got %d", len(users))
	}
	if users[0].Name != "Ahmad Staff" || users[0].AssignedLocations != `["Yogyakarta","Surakarta"]` {
		t.Fatalf("unexpected first user %+v", users[0])
	}

	locations, err := database.Queries.ListLocations(ctx, "")
	if err != nil {
		t.Fatalf("list locations: %v", err)
	}
	if len(locations) != 3 {
		t.Fatalf("expected 3 seeded locations, got %d", len(locations))
	}

	activity, err := database.Queries.ListActivity(ctx, db.ListActivityParams{Limit: 50})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(activity) != 5 {
		t.Fatalf("expected 5 seeded activities, got %d", len(activity))
	}
	if activity[0].Action != "User Added" {
		t.Fatalf("expected newest activity first, got %q", activity[0].Action)
	}
}

func TestListManagedUsersSearch(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	tests := map[string]int{
		"budi":              1,
		"SOULPARKING.CO.ID": 4,
		"jakarta":           1,
		"nobody":            0,
	}
	for search, want := range tests {
		users, err := database.Queries.ListManagedUsers(ctx, search)
		if err != nil {
			t.Fatalf("list users %q: %v", search, err)
		}
		if len(users) != want {
			t.Fatalf("search %q: expected %d users, got %d", search, want, len(users))
		}
	}
}

func TestManagedUserCRUD(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().Unix()

	created, err := database.Queries.CreateManagedUser(ctx, db.CreateManagedUserParams{
		Name:              "Eka Surakarta",
		Email:             "eka@soulparking.co.id",
		Phone:             sql.NullString{String: "+6281234567890", Valid: true},
		Role:              "staff",
		AssignedLocations: `["Surakarta"]`,
		Status:            "active",
		CreatedAt:         now,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == 0 || created.UpdatedAt != now {
		t.Fatalf("unexpected created user %+v", created)
	}

	updated, err := database.Queries.UpdateManagedUser(ctx, db.UpdateManagedUserParams{
		ID:                created.ID,
		Name:              "Eka Solo",
		Email:             created.Email,
		Role:              "admin",
		AssignedLocations: created.AssignedLocations,
		Status:            "inactive",
		UpdatedAt:         now + 10,
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Name != "Eka Solo" || updated.Role != "admin" || updated.Phone.Valid {
		t.Fatalf("unexpected updated user %+v", updated)
	}

	if _, err := database.Queries.CreateManagedUser(ctx, db.CreateManagedUserParams{
		Name: "Dup", Email: "EKA@soulparking.co.id", Role: "staff", AssignedLocations: "[]", Status: "active", CreatedAt: now,
	}); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}

	affected, err := database.Queries.DeleteManagedUser(ctx, created.ID)
	if err != nil || affected != 1 {
		t.Fatalf("delete user: affected=%d err=%v", affected, err)
	}
	if _, err := database.Queries.GetManagedUser(ctx, created.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestTouchManagedUserByEmail(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	affected, err := database.Queries.TouchManagedUserByEmail(ctx, "budi@soulparking.co.id", 1700000000)
	if err != nil || affected != 1 {
		t.Fatalf("touch user: affected=%d err=%v", affected, err)
	}
	user, err := database.Queries.GetManagedUserByEmail(ctx, "budi@soulparking.co.id")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.LastActiveAt.Int64 != 1700000000 {
		t.Fatalf("expected last active to be updated, got %+v", user.LastActiveAt)
	}

	affected, err = database.Queries.TouchManagedUserByEmail(ctx, "user@soulparking.co.id", 1700000000)
	if err != nil || affected != 0 {
		t.Fatalf("expected no managed user for staff login, affected=%d err=%v", affected, err)
	}
}

func TestLocationCRUDAndTotals(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().Unix()

	created, err := database.Queries.CreateLocation(ctx, db.CreateLocationParams{
		Name:       "Surakarta Station",
		Address:    "Jl. Slamet Riyadi No. 5, Surakarta",
		TotalSpots: 100,
		Status:     "active",
		CreatedAt:  now,
	})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}

	found, err := database.Queries.ListLocations(ctx, "riyadi")
	if err != nil || len(found) != 1 || found[0].ID != created.ID {
		t.Fatalf("expected address search to find new location, got %v (%v)", found, err)
	}

	if _, err := database.Queries.UpdateLocation(ctx, db.UpdateLocationParams{
		ID: created.ID, Name: created.Name, Address: created.Address, TotalSpots: 100, OccupiedSpots: 100, Status: "full", UpdatedAt: now,
	}); err != nil {
		t.Fatalf("update location: %v", err)
	}
	if _, err := database.Queries.UpdateLocation(ctx, db.UpdateLocationParams{
		ID: created.ID, Name: created.Name, Address: created.Address, TotalSpots: 100, Status: "closed", UpdatedAt: now,
	}); err == nil {
		t.Fatal("expected invalid status to be rejected")
	}

	totals, err := database.Queries.GetLocationTotals(ctx)
	if err != nil {
		t.Fatalf("location totals: %v", err)
	}
	if totals.Locations != 4 || totals.TotalSpots != 1900 || totals.OccupiedSpots != 1447 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if totals.RevenueToday != 66_400_000 {
		t.Fatalf("unexpected revenue total %d", totals.RevenueToday)
	}

	affected, err := database.Queries.DeleteLocation(ctx, 9999)
	if err != nil || affected != 0 {
		t.Fatalf("expected no rows for unknown location, affected=%d err=%v", affected, err)
	}
}

func TestListActivityFilters(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	if _, err := database.Queries.CreateActivity(ctx, db.CreateActivityParams{
		ActorName: "System Admin", ActorRole: "admin", Action: "Logout", Type: "auth", Details: "Signed out", CreatedAt: time.Now().Unix() + 60,
	}); err != nil {
		t.Fatalf("create activity: %v", err)
	}

	logins, err := database.Queries.ListActivity(ctx, db.ListActivityParams{Type: "auth", Limit: 10})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(logins) != 2 || logins[0].Action != "Logout" {
		t.Fatalf("unexpected auth activity %v", logins)
	}

	bandung, err := database.Queries.ListActivity(ctx, db.ListActivityParams{Search: "bandung", Limit: 10})
	if err != nil || len(bandung) != 1 {
		t.Fatalf("expected one bandung entry, got %v (%v)", bandung, err)
	}

	limited, err := database.Queries.ListActivity(ctx, db.ListActivityParams{Limit: 2})
	if err != nil || len(limited) != 2 {
		t.Fatalf("expected limit of 2, got %d (%v)", len(limited), err)
	}

	counts, err := database.Queries.CountActivitySince(ctx, 0)
	if err != nil {
		t.Fatalf("count activity: %v", err)
	}
	if len(counts) != 4 {
		t.Fatalf("expected 4 activity types, got %v", counts)
	}
}

func TestSessionStore(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	store := db.NewSessionStore(database.Queries)

	if _, ok, err := store.Get(ctx, "user"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "user", []byte(`{"email":"a"}`), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "user", []byte(`{"email":"b"}`), 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := store.Get(ctx, "user")
	if err != nil || !ok || string(value) != `{"email":"b"}` {
		t.Fatalf("unexpected value %q ok=%v err=%v", value, ok, err)
	}

	if err := store.Put(ctx, "user:short", []byte("x"), time.Hour); err != nil {
		t.Fatalf("put with ttl: %v", err)
	}
	removed, err := store.Prune(ctx, time.Now().Add(2*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 pruned, got %d (%v)", removed, err)
	}
	if _, ok, _ := store.Get(ctx, "user"); !ok {
		t.Fatal("expected value without ttl to survive prune")
	}

	if err := store.Delete(ctx, "user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "user"); ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestSessionStoreWorksWithSessionService(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	creds, err := auth.DefaultCredentials()
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}

	svc := auth.NewSessionService(db.NewSessionStore(database.Queries), creds, 0)
	if _, err := svc.Login(ctx, auth.StaffEmail, "password"); err != nil {
		t.Fatalf("login: %v", err)
	}
	current, err := svc.Current(ctx)
	if err != nil || current == nil || current.Role != auth.RoleUser {
		t.Fatalf("expected persisted staff user, got %+v (%v)", current, err)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := database.RunInTx(ctx, func(tx *db.DB) error {
		if _, err := tx.Queries.DeleteLocation(ctx, 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := database.Queries.GetLocation(ctx, 1); err != nil {
		t.Fatalf("expected location to survive rollback, got %v", err)
	}
}
