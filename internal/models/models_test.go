package models

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/soulparking/dashboard/internal/db"
)

func TestUserInputNormalize(t *testing.T) {
	input := UserInput{Name: "  Eka Surabaya ", Email: " Eka@SoulParking.co.id ", Phone: "0812 3456 7890"}
	if err := input.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if input.Name != "Eka Surabaya" || input.Email != "eka@soulparking.co.id" {
		t.Fatalf("unexpected trimmed input: %+v", input)
	}
	if input.Role != RoleStaff || input.Status != StatusActive {
		t.Fatalf("expected staff/active defaults, got %q/%q", input.Role, input.Status)
	}
	if input.Phone != "+6281234567890" {
		t.Fatalf("expected E.164 phone, got %q", input.Phone)
	}
	if input.AssignedLocations == nil {
		t.Fatal("expected assigned locations to default to an empty list")
	}
}

func TestUserInputValidationFields(t *testing.T) {
	tests := []struct {
		name  string
		input UserInput
		field string
	}{
		{name: "missing name", input: UserInput{Email: "a@b.co"}, field: "name"},
		{name: "missing email", input: UserInput{Name: "A"}, field: "email"},
		{name: "bad email", input: UserInput{Name: "A", Email: "not an email"}, field: "email"},
		{name: "bad role", input: UserInput{Name: "A", Email: "a@b.co", Role: "owner"}, field: "role"},
		{name: "bad status", input: UserInput{Name: "A", Email: "a@b.co", Status: "gone"}, field: "status"},
		{name: "bad phone", input: UserInput{Name: "A", Email: "a@b.co", Phone: "12"}, field: "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			err := input.Normalize()
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, validationErr.Field)
			}
		})
	}
}

func TestUserRoundTripThroughParams(t *testing.T) {
	now := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)
	input := UserInput{Name: "Eka", Email: "eka@soulparking.co.id", AssignedLocations: []string{" Bandung ", ""}}
	if err := input.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	params, err := input.CreateParams(now)
	if err != nil {
		t.Fatalf("CreateParams: %v", err)
	}
	if params.AssignedLocations != `["Bandung"]` {
		t.Fatalf("unexpected encoded locations %s", params.AssignedLocations)
	}
	if params.Phone.Valid {
		t.Fatal("expected empty phone to be stored as NULL")
	}

	user := UserFromDB(db.ManagedUser{
		ID:                7,
		Name:              params.Name,
		Email:             params.Email,
		Role:              params.Role,
		AssignedLocations: params.AssignedLocations,
		Status:            params.Status,
		LastActiveAt:      sql.NullInt64{Int64: now.Unix(), Valid: true},
		CreatedAt:         now.Unix(),
		UpdatedAt:         now.Unix(),
	})
	if len(user.AssignedLocations) != 1 || user.AssignedLocations[0] != "Bandung" {
		t.Fatalf("unexpected assigned locations %v", user.AssignedLocations)
	}
	if user.LastActive == nil || !user.LastActive.Equal(now) {
		t.Fatalf("unexpected last active %v", user.LastActive)
	}
}

func TestUserFromDB_MalformedLocations(t *testing.T) {
	user := UserFromDB(db.ManagedUser{AssignedLocations: "not json"})
	if user.AssignedLocations == nil || len(user.AssignedLocations) != 0 {
		t.Fatalf("expected empty locations, got %v", user.AssignedLocations)
	}
	if user.LastActive != nil {
		t.Fatal("expected nil last active for NULL column")
	}
}

func TestUserInputMerge(t *testing.T) {
	existing := User{Status: StatusInactive, AssignedLocations: []string{"Jakarta Selatan"}}
	merged := UserInput{Name: "Cici"}.Merge(existing)
	if merged.Status != StatusInactive || len(merged.AssignedLocations) != 1 {
		t.Fatalf("expected existing fields kept, got %+v", merged)
	}
}

func TestLocationInputNormalize(t *testing.T) {
	input := LocationInput{Name: " Surakarta Station ", Address: "Jl. Slamet Riyadi"}
	if err := input.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if input.TotalSpots != DefaultTotalSpots || input.Status != LocationActive {
		t.Fatalf("unexpected defaults %+v", input)
	}

	tests := []struct {
		name  string
		input LocationInput
		field string
	}{
		{name: "missing address", input: LocationInput{Name: "A"}, field: "address"},
		{name: "overfull", input: LocationInput{Name: "A", Address: "B", TotalSpots: 10, OccupiedSpots: 11}, field: "occupiedSpots"},
		{name: "negative spots", input: LocationInput{Name: "A", Address: "B", TotalSpots: -1}, field: "totalSpots"},
		{name: "bad status", input: LocationInput{Name: "A", Address: "B", Status: "closed"}, field: "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			var validationErr *ValidationError
			if err := input.Normalize(); !errors.As(err, &validationErr) || validationErr.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
		})
	}
}

func TestLocationFromDB_Occupancy(t *testing.T) {
	location := LocationFromDB(db.Location{TotalSpots: 300, OccupiedSpots: 285})
	if location.OccupancyPercent != 95 {
		t.Fatalf("expected 95%% occupancy, got %d", location.OccupancyPercent)
	}
	totals := NetworkTotalsFromDB(db.LocationTotals{})
	if totals.OccupancyPercent != 0 {
		t.Fatalf("expected zero occupancy for empty network, got %d", totals.OccupancyPercent)
	}
}

func TestActivityFilterNormalize(t *testing.T) {
	filter := ActivityFilter{Type: "ALL", Limit: 10000}
	if err := filter.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if filter.Type != "" || filter.Limit != MaxActivityLimit {
		t.Fatalf("unexpected filter %+v", filter)
	}

	filter = ActivityFilter{}
	if err := filter.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if filter.Limit != DefaultActivityLimit {
		t.Fatalf("expected default limit, got %d", filter.Limit)
	}

	filter = ActivityFilter{Type: "billing"}
	if err := filter.Normalize(); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
