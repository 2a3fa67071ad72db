// internal/models/activity.go
package models

import (
	"strings"
	"time"

	"github.com/soulparking/dashboard/internal/db"
)

const (
	ActivityUser     = "user"
	ActivityLocation = "location"
	ActivitySystem   = "system"
	ActivityAuth     = "auth"

	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

type Activity struct {
	ID        int64     `json:"id"`
	ActorName string    `json:"actorName"`
	ActorRole string    `json:"actorRole"`
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsActivityType reports whether value is one of the known activity types.
func IsActivityType(value string) bool {
	switch value {
	case ActivityUser, ActivityLocation, ActivitySystem, ActivityAuth:
		return true
	}
	return false
}

// ActivityFilter selects entries for the activity log listing.
type ActivityFilter struct {
	Type   string
	Search string
	Limit  int64
}

func (f *ActivityFilter) Normalize() error {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	f.Search = strings.TrimSpace(f.Search)
	if f.Type != "" && f.Type != "all" && !IsActivityType(f.Type) {
		return &ValidationError{Field: "type", Message: "type must be user, location, system or auth"}
	}
	if f.Type == "all" {
		f.Type = ""
	}
	if f.Limit <= 0 {
		f.Limit = DefaultActivityLimit
	}
	if f.Limit > MaxActivityLimit {
		f.Limit = MaxActivityLimit
	}
	return nil
}

func (f ActivityFilter) Params() db.ListActivityParams {
	return db.ListActivityParams{Type: f.Type, Search: f.Search, Limit: f.Limit}
}

func ActivitiesFromDB(rows []db.ActivityLog) []Activity {
	results := make([]Activity, 0, len(rows))
	for _, row := range rows {
		results = append(results, ActivityFromDB(row))
	}
	return results
}

func ActivityFromDB(row db.ActivityLog) Activity {
	return Activity{
		ID:        row.ID,
		ActorName: row.ActorName,
		ActorRole: row.ActorRole,
		Action:    row.Action,
		Type:      row.Type,
		Details:   row.Details,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
	}
}
