package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	parkauth "github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/models"
)

var fixedNow = time.Date(2023, time.October, 26, 14, 30, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	return &env{
		dbPath:   filepath.Join(t.TempDir(), "parkctl.db"),
		timezone: "UTC",
		now:      func() time.Time { return fixedNow },
	}
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(e)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func login(t *testing.T, e *env, email, password string) {
	t.Helper()
	if _, err := run(t, e, "login", "--email", email, "--password", password); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	e := newTestEnv(t)

	if _, err := run(t, e, "whoami"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn before login, got %v", err)
	}

	_, err := run(t, e, "login", "--email", parkauth.AdminEmail, "--password", "wrong")
	if err == nil || err.Error() != parkauth.InvalidCredentialsMessage {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	out, err := run(t, e, "login", "--email", parkauth.AdminEmail, "--password", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Signed in as System Admin (admin)") {
		t.Fatalf("unexpected login output %q", out)
	}

	out, err = run(t, e, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if strings.TrimSpace(out) != "System Admin <admin@soulparking.co.id> admin" {
		t.Fatalf("unexpected whoami output %q", out)
	}

	out, err = run(t, e, "logout")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !strings.Contains(out, "Signed out admin@soulparking.co.id") {
		t.Fatalf("unexpected logout output %q", out)
	}
	if _, err := run(t, e, "whoami"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn after logout, got %v", err)
	}

	out, err = run(t, e, "logout")
	if err != nil || !strings.Contains(out, "Not signed in") {
		t.Fatalf("expected a quiet second logout, got %q, %v", out, err)
	}
}

func TestLoginRecordsActivity(t *testing.T) {
	e := newTestEnv(t)
	login(t, e, parkauth.StaffEmail, "password")
	if _, err := run(t, e, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	database, err := db.New(e.dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()

	rows, err := database.Queries.ListActivity(context.Background(), db.ListActivityParams{
		Type:   models.ActivityAuth,
		Search: "parkctl",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("list activity: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected login and logout entries, got %d", len(rows))
	}
	actions := map[string]bool{rows[0].Action: true, rows[1].Action: true}
	if !actions["Login"] || !actions["Logout"] {
		t.Fatalf("unexpected actions %v", actions)
	}
}

func TestLoginRequiresFlags(t *testing.T) {
	e := newTestEnv(t)
	if _, err := run(t, e, "login", "--email", parkauth.AdminEmail); err == nil {
		t.Fatal("expected an error without --password")
	}
}

func TestDashboard(t *testing.T) {
	e := newTestEnv(t)

	if _, err := run(t, e, "dashboard"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn, got %v", err)
	}

	login(t, e, parkauth.StaffEmail, "password")

	out, err := run(t, e, "dashboard", "--from", "2023-10-26", "--to", "2023-10-26")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	for _, want := range []string{"PARKING DASHBOARD", "Custom: ", "Rp 12.500.000", "Vehicles by hour", "Income by payment method"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in dashboard output:\n%s", want, out)
		}
	}

	out, err = run(t, e, "dashboard")
	if err != nil {
		t.Fatalf("dashboard default: %v", err)
	}
	if !strings.Contains(out, "Today: ") {
		t.Fatalf("expected today by default, got:\n%s", out)
	}

	if _, err := run(t, e, "dashboard", "--preset", "fortnight"); err == nil {
		t.Fatal("expected an error for an unknown preset")
	}
	if _, err := run(t, e, "dashboard", "--from", "2023-10-27", "--to", "2023-10-26"); err == nil {
		t.Fatal("expected an error for a reversed range")
	}
}

func TestOverview(t *testing.T) {
	e := newTestEnv(t)

	login(t, e, parkauth.StaffEmail, "password")
	if _, err := run(t, e, "overview"); !errors.Is(err, errAdminOnly) {
		t.Fatalf("expected errAdminOnly for staff, got %v", err)
	}

	login(t, e, parkauth.AdminEmail, "admin123")
	out, err := run(t, e, "overview", "--preset", "all")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	for _, want := range []string{"NETWORK OVERVIEW", "All Time (7 day default)", "Rp 127.4 M", "Daily revenue", "Vehicles by location"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in overview output:\n%s", want, out)
		}
	}
}

func TestTransactionsList(t *testing.T) {
	e := newTestEnv(t)
	login(t, e, parkauth.StaffEmail, "password")

	out, err := run(t, e, "transactions", "--search", "b 1234")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if !strings.Contains(out, "B 1234 ABC") || strings.Contains(out, "D 1234 PQR") {
		t.Fatalf("unexpected search result:\n%s", out)
	}
	if !strings.Contains(out, "1 transactions, 1 paid, 0 unpaid, total Rp 15.000") {
		t.Fatalf("unexpected totals:\n%s", out)
	}

	out, err = run(t, e, "transactions", "--from", "2023-10-27", "--to", "2023-10-27")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if !strings.Contains(out, "No transactions found") {
		t.Fatalf("expected empty list, got:\n%s", out)
	}
}

func TestTransactionsExport(t *testing.T) {
	e := newTestEnv(t)
	login(t, e, parkauth.StaffEmail, "password")
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "transactions.csv")
	out, err := run(t, e, "transactions", "--csv", csvPath)
	if err != nil {
		t.Fatalf("csv export: %v", err)
	}
	if !strings.Contains(out, "Wrote 11 rows") {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,plateNumber,vehicleType,entryTime,exitTime,status,amount\n") {
		t.Fatalf("unexpected csv header in %q", data)
	}
	if got := len(strings.Split(string(data), "\n")); got != 12 {
		t.Fatalf("expected a header and 11 rows, got %d lines", got)
	}

	xlsxPath := filepath.Join(dir, "transactions.xlsx")
	if _, err := run(t, e, "transactions", "--search", "B 5678", "--xlsx", xlsxPath); err != nil {
		t.Fatalf("xlsx export: %v", err)
	}
	if info, err := os.Stat(xlsxPath); err != nil || info.Size() == 0 {
		t.Fatalf("expected an xlsx file, got %v", err)
	}

	emptyPath := filepath.Join(dir, "empty.csv")
	out, err = run(t, e, "transactions", "--search", "ZZZ", "--csv", emptyPath)
	if err != nil {
		t.Fatalf("empty export: %v", err)
	}
	if !strings.Contains(out, "Nothing to export") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(emptyPath); !os.IsNotExist(err) {
		t.Fatalf("expected no file for an empty export, got %v", err)
	}

	if _, err := run(t, e, "transactions", "--csv", csvPath, "--xlsx", xlsxPath); err == nil {
		t.Fatal("expected an error when both formats are given")
	}
}

func TestReport(t *testing.T) {
	e := newTestEnv(t)
	login(t, e, parkauth.StaffEmail, "password")

	path := filepath.Join(t.TempDir(), "report.csv")
	if _, err := run(t, e, "report", "--from", "2023-10-26", "--to", "2023-10-28", "--out", path); err != nil {
		t.Fatalf("report: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 || lines[0] != "Date,TotalIncome,Vehicles,Occupancy" {
		t.Fatalf("unexpected report %q", data)
	}
	if !strings.HasPrefix(lines[3], "2023-10-28,") {
		t.Fatalf("unexpected last row %q", lines[3])
	}

	if _, err := run(t, e, "report", "--preset", "all", "--out", path); err == nil {
		t.Fatal("expected an error for an unbounded report")
	}
}

func TestMigrate(t *testing.T) {
	e := newTestEnv(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"migrate", "version"}, "Current version: 0, dirty: false"},
		{[]string{"migrate", "up"}, "Migrated up"},
		{[]string{"migrate", "version"}, "Current version: 2, dirty: false"},
		{[]string{"migrate", "up"}, "No change"},
		{[]string{"migrate", "down"}, "Rolled back one migration"},
		{[]string{"migrate", "version"}, "Current version: 1, dirty: false"},
	}
	for _, step := range steps {
		out, err := run(t, e, step.args...)
		if err != nil {
			t.Fatalf("%v: %v", step.args, err)
		}
		if !strings.Contains(out, step.want) {
			t.Fatalf("%v: expected %q, got %q", step.args, step.want, out)
		}
	}
}
