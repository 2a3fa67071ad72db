// internal/models/locations.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/soulparking/dashboard/internal/db"
)

const (
	LocationActive      = "active"
	LocationMaintenance = "maintenance"
	LocationFull        = "full"

	DefaultTotalSpots = 100
)

type Location struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	TotalSpots       int64     `json:"totalSpots"`
	OccupiedSpots    int64     `json:"occupiedSpots"`
	OccupancyPercent int       `json:"occupancyPercent"`
	Status           string    `json:"status"`
	RevenueToday     int64     `json:"revenueToday"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type LocationInput struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	TotalSpots    int64  `json:"totalSpots,omitempty"`
	OccupiedSpots int64  `json:"occupiedSpots,omitempty"`
	Status        string `json:"status,omitempty"`
	RevenueToday  int64  `json:"revenueToday,omitempty"`
}

func (in *LocationInput) Normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.TotalSpots == 0 {
		in.TotalSpots = DefaultTotalSpots
	}
	if in.Status == "" {
		in.Status = LocationActive
	}
	return in.Validate()
}

func (in LocationInput) Validate() error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(in.Name) > maxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name must be %d characters or fewer", maxNameLength)}
	}
	if in.Address == "" {
		return &ValidationError{Field: "address", Message: "address is required"}
	}
	if in.TotalSpots < 1 {
		return &ValidationError{Field: "totalSpots", Message: "totalSpots must be at least 1"}
	}
	if in.OccupiedSpots < 0 || in.OccupiedSpots > in.TotalSpots {
		return &ValidationError{Field: "occupiedSpots", Message: "occupiedSpots must be between 0 and totalSpots"}
	}
	if in.RevenueToday < 0 {
		return &ValidationError{Field: "revenueToday", Message: "revenueToday must be 0 or greater"}
	}
	switch in.Status {
	case LocationActive, LocationMaintenance, LocationFull:
	default:
		return &ValidationError{Field: "status", Message: "status must be active, maintenance or full"}
	}
	return nil
}

func (in LocationInput) CreateParams(now time.Time) db.CreateLocationParams {
	return db.CreateLocationParams{
		Name:          in.Name,
		Address:       in.Address,
		TotalSpots:    in.TotalSpots,
		OccupiedSpots: in.OccupiedSpots,
		Status:        in.Status,
		RevenueToday:  in.RevenueToday,
		CreatedAt:     now.Unix(),
	}
}

func (in LocationInput) UpdateParams(id int64, now time.Time) db.UpdateLocationParams {
	return db.UpdateLocationParams{
		ID:            id,
		Name:          in.Name,
		Address:       in.Address,
		TotalSpots:    in.TotalSpots,
		OccupiedSpots: in.OccupiedSpots,
		Status:        in.Status,
		RevenueToday:  in.RevenueToday,
		UpdatedAt:     now.Unix(),
	}
}

func LocationsFromDB(rows []db.Location) []Location {
	results := make([]Location, 0, len(rows))
	for _, row := range rows {
		results = append(results, LocationFromDB(row))
	}
	return results
}

func LocationFromDB(row db.Location) Location {
	return Location{
		ID:               row.ID,
		Name:             row.Name,
		Address:          row.Address,
		TotalSpots:       row.TotalSpots,
		OccupiedSpots:    row.OccupiedSpots,
		OccupancyPercent: occupancyPercent(row.OccupiedSpots, row.TotalSpots),
		Status:           row.Status,
		RevenueToday:     row.RevenueToday,
		UpdatedAt:        time.Unix(row.UpdatedAt, 0).UTC(),
	}
}

// NetworkTotals summarises every location.
type NetworkTotals struct {
	Locations        int64 `json:"locations"`
	TotalSpots       int64 `json:"totalSpots"`
	OccupiedSpots    int64 `json:"occupiedSpots"`
	OccupancyPercent int   `json:"occupancyPercent"`
	RevenueToday     int64 `json:"revenueToday"`
}

func NetworkTotalsFromDB(row db.LocationTotals) NetworkTotals {
	return NetworkTotals{
		Locations:        row.Locations,
		TotalSpots:       row.TotalSpots,
		OccupiedSpots:    row.OccupiedSpots,
		OccupancyPercent: occupancyPercent(row.OccupiedSpots, row.TotalSpots),
		RevenueToday:     row.RevenueToday,
	}
}

func occupancyPercent(occupied, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(occupied * 100 / total)
}
