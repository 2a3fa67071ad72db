// internal/db/locations.sql.go
package db

import "context"

type Location struct {
	ID            int64
	Name          string
	Address       string
	TotalSpots    int64
	OccupiedSpots int64
	Status        string
	RevenueToday  int64
	CreatedAt     int64
	UpdatedAt     int64
}

const locationColumns = `id, name, address, total_spots, occupied_spots, status, revenue_today, created_at, updated_at`

func scanLocation(row interface{ Scan(...any) error }) (Location, error) {
	var i Location
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.TotalSpots,
		&i.OccupiedSpots,
		&i.Status,
		&i.RevenueToday,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listLocations = `SELECT ` + locationColumns + `
FROM locations
WHERE ?1 = ''
   OR instr(lower(name), lower(?1)) > 0
   OR instr(lower(address), lower(?1)) > 0
ORDER BY id`

// ListLocations returns locations whose name or address contains search, ignoring case.
func (q *Queries) ListLocations(ctx context.Context, search string) ([]Location, error) {
	rows, err := q.db.QueryContext(ctx, listLocations, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Location{}
	for rows.Next() {
		i, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLocation = `SELECT ` + locationColumns + ` FROM locations WHERE id = ?`

func (q *Queries) GetLocation(ctx context.Context, id int64) (Location, error) {
	return scanLocation(q.db.QueryRowContext(ctx, getLocation, id))
}

const createLocation = `INSERT INTO locations (name, address, total_spots, occupied_spots, status, revenue_today, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + locationColumns

type CreateLocationParams struct {
	Name          string
	Address       string
	TotalSpots    int64
	OccupiedSpots int64
	Status        string
	RevenueToday  int64
	CreatedAt     int64
}

func (q *Queries) CreateLocation(ctx context.Context, arg CreateLocationParams) (Location, error) {
	row := q.db.QueryRowContext(ctx, createLocation,
		arg.Name,
		arg.Address,
		arg.TotalSpots,
		arg.OccupiedSpots,
		arg.Status,
		arg.RevenueToday,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanLocation(row)
}

const updateLocation = `UPDATE locations
SET name = ?, address = ?, total_spots = ?, occupied_spots = ?, status = ?, revenue_today = ?, updated_at = ?
WHERE id = ?
RETURNING ` + locationColumns

type UpdateLocationParams struct {
	ID            int64
	Name          string
	Address       string
	TotalSpots    int64
	OccupiedSpots int64
	Status        string
	RevenueToday  int64
	UpdatedAt     int64
}

func (q *Queries) UpdateLocation(ctx context.Context, arg UpdateLocationParams) (Location, error) {
	row := q.db.QueryRowContext(ctx, updateLocation,
		arg.Name,
		arg.Address,
		arg.TotalSpots,
		arg.OccupiedSpots,
		arg.Status,
		arg.RevenueToday,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanLocation(row)
}

const deleteLocation = `DELETE FROM locations WHERE id = ?`

func (q *Queries) DeleteLocation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteLocation, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const locationTotals = `SELECT COUNT(*), COALESCE(SUM(total_spots), 0), COALESCE(SUM(occupied_spots), 0), COALESCE(SUM(revenue_today), 0) FROM locations`

type LocationTotals struct {
	Locations     int64
	TotalSpots    int64
	OccupiedSpots int64
	RevenueToday  int64
}

func (q *Queries) GetLocationTotals(ctx context.Context) (LocationTotals, error) {
	var i LocationTotals
	err := q.db.QueryRowContext(ctx, locationTotals).Scan(
		&i.Locations,
		&i.TotalSpots,
		&i.OccupiedSpots,
		&i.RevenueToday,
	)
	return i, err
}
