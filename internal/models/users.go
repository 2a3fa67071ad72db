// internal/models/users.go
package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/phone"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"

	StatusActive   = "active"
	StatusInactive = "inactive"

	maxNameLength = 100
)

type User struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone,omitempty"`
	Role              string     `json:"role"`
	AssignedLocations []string   `json:"assignedLocations"`
	Status            string     `json:"status"`
	LastActive        *time.Time `json:"lastActive,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// UserInput is the writable subset of a managed user.
type UserInput struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone,omitempty"`
	Role              string   `json:"role"`
	AssignedLocations []string `json:"assignedLocations,omitempty"`
	Status            string   `json:"status,omitempty"`
}

// Normalize trims fields, fills defaults and rewrites the phone number in E.164 form.
// Failures are returned as *ValidationError.
func (in *UserInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Role == "" {
		in.Role = RoleStaff
	}
	if in.Status == "" {
		in.Status = StatusActive
	}
	if in.AssignedLocations == nil {
		in.AssignedLocations = []string{}
	}
	if raw := strings.TrimSpace(in.Phone); raw != "" {
		normalized, err := phone.Normalize(raw)
		if err != nil {
			return &ValidationError{Field: "phone", Message: "phone must be a valid phone number"}
		}
		in.Phone = normalized
	} else {
		in.Phone = ""
	}
	return in.Validate()
}

func (in UserInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(in.Name) > maxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name must be %d characters or fewer", maxNameLength)}
	}
	if in.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return &ValidationError{Field: "email", Message: "email must be a valid address"}
	}
	switch in.Role {
	case RoleAdmin, RoleStaff:
	default:
		return &ValidationError{Field: "role", Message: "role must be admin or staff"}
	}
	switch in.Status {
	case StatusActive, StatusInactive:
	default:
		return &ValidationError{Field: "status", Message: "status must be active or inactive"}
	}
	return nil
}

// Merge fills fields an update left empty from the existing user.
func (in UserInput) Merge(existing User) UserInput {
	if in.AssignedLocations == nil {
		in.AssignedLocations = existing.AssignedLocations
	}
	if in.Status == "" {
		in.Status = existing.Status
	}
	return in
}

func (in UserInput) CreateParams(now time.Time) (db.CreateManagedUserParams, error) {
	locations, err := encodeLocations(in.AssignedLocations)
	if err != nil {
		return db.CreateManagedUserParams{}, err
	}
	return db.CreateManagedUserParams{
		Name:              in.Name,
		Email:             in.Email,
		Phone:             nullString(in.Phone),
		Role:              in.Role,
		AssignedLocations: locations,
		Status:            in.Status,
		CreatedAt:         now.Unix(),
	}, nil
}

func (in UserInput) UpdateParams(id int64, now time.Time) (db.UpdateManagedUserParams, error) {
	locations, err := encodeLocations(in.AssignedLocations)
	if err != nil {
		return db.UpdateManagedUserParams{}, err
	}
	return db.UpdateManagedUserParams{
		ID:                id,
		Name:              in.Name,
		Email:             in.Email,
		Phone:             nullString(in.Phone),
		Role:              in.Role,
		AssignedLocations: locations,
		Status:            in.Status,
		UpdatedAt:         now.Unix(),
	}, nil
}

func UsersFromDB(rows []db.ManagedUser) []User {
	results := make([]User, 0, len(rows))
	for _, row := range rows {
		results = append(results, UserFromDB(row))
	}
	return results
}

func UserFromDB(row db.ManagedUser) User {
	var lastActive *time.Time
	if row.LastActiveAt.Valid {
		at := time.Unix(row.LastActiveAt.Int64, 0).UTC()
		lastActive = &at
	}
	locations := []string{}
	if row.AssignedLocations != "" {
		// Rows written outside this package may hold malformed JSON; treat them as unassigned.
		if err := json.Unmarshal([]byte(row.AssignedLocations), &locations); err != nil || locations == nil {
			locations = []string{}
		}
	}
	return User{
		ID:                row.ID,
		Name:              row.Name,
		Email:             row.Email,
		Phone:             row.Phone.String,
		Role:              row.Role,
		AssignedLocations: locations,
		Status:            row.Status,
		LastActive:        lastActive,
		CreatedAt:         time.Unix(row.CreatedAt, 0).UTC(),
		UpdatedAt:         time.Unix(row.UpdatedAt, 0).UTC(),
	}
}

func encodeLocations(locations []string) (string, error) {
	cleaned := make([]string, 0, len(locations))
	for _, location := range locations {
		if trimmed := strings.TrimSpace(location); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	data, err := json.Marshal(cleaned)
	if err != nil {
		return "", fmt.Errorf("encode assigned locations: %w", err)
	}
	return string(data), nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
