// internal/db/users.sql.go
package db

import (
	"context"
	"database/sql"
)

type ManagedUser struct {
	ID                int64
	Name              string
	Email             string
	Phone             sql.NullString
	Role              string
	AssignedLocations string
	Status            string
	LastActiveAt      sql.NullInt64
	CreatedAt         int64
	UpdatedAt         int64
}

const managedUserColumns = `id, name, email, phone, role, assigned_locations, status, last_active_at, created_at, updated_at`

func scanManagedUser(row interface{ Scan(...any) error }) (ManagedUser, error) {
	var i ManagedUser
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.Role,
		&i.AssignedLocations,
		&i.Status,
		&i.LastActiveAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listManagedUsers = `SELECT ` + managedUserColumns + `
FROM managed_users
WHERE ?1 = ''
   OR instr(lower(name), lower(?1)) > 0
   OR instr(lower(email), lower(?1)) > 0
ORDER BY id`

// ListManagedUsers returns users whose name or email contains search, ignoring case.
func (q *Queries) ListManagedUsers(ctx context.Context, search string) ([]ManagedUser, error) {
	rows, err := q.db.QueryContext(ctx, listManagedUsers, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ManagedUser{}
	for rows.Next() {
		i, err := scanManagedUser(rows)
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

const getManagedUser = `SELECT ` + managedUserColumns + ` FROM managed_users WHERE id = ?`

func (q *Queries) GetManagedUser(ctx context.Context, id int64) (ManagedUser, error) {
	return scanManagedUser(q.db.QueryRowContext(ctx, getManagedUser, id))
}

const getManagedUserByEmail = `SELECT ` + managedUserColumns + ` FROM managed_users WHERE email = ?`

func (q *Queries) GetManagedUserByEmail(ctx context.Context, email string) (ManagedUser, error) {
	return scanManagedUser(q.db.QueryRowContext(ctx, getManagedUserByEmail, email))
}

const createManagedUser = `INSERT INTO managed_users (name, email, phone, role, assigned_locations, status, last_active_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + managedUserColumns

type CreateManagedUserParams struct {
	Name              string
	Email             string
	Phone             sql.NullString
	Role              string
	AssignedLocations string
	Status            string
	LastActiveAt      sql.NullInt64
	CreatedAt         int64
}

func (q *Queries) CreateManagedUser(ctx context.Context, arg CreateManagedUserParams) (ManagedUser, error) {
	row := q.db.QueryRowContext(ctx, createManagedUser,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Role,
		arg.AssignedLocations,
		arg.Status,
		arg.LastActiveAt,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return scanManagedUser(row)
}

const updateManagedUser = `UPDATE managed_users
SET name = ?, email = ?, phone = ?, role = ?, assigned_locations = ?, status = ?, updated_at = ?
WHERE id = ?
RETURNING ` + managedUserColumns

type UpdateManagedUserParams struct {
	ID                int64
	Name              string
	Email             string
	Phone             sql.NullString
	Role              string
	AssignedLocations string
	Status            string
	UpdatedAt         int64
}

func (q *Queries) UpdateManagedUser(ctx context.Context, arg UpdateManagedUserParams) (ManagedUser, error) {
	row := q.db.QueryRowContext(ctx, updateManagedUser,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Role,
		arg.AssignedLocations,
		arg.Status,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanManagedUser(row)
}

const touchManagedUserByEmail = `UPDATE managed_users SET last_active_at = ? WHERE email = ?`

// TouchManagedUserByEmail records activity for the user with email, if one exists.
func (q *Queries) TouchManagedUserByEmail(ctx context.Context, email string, at int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, touchManagedUserByEmail, at, email)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteManagedUser = `DELETE FROM managed_users WHERE id = ?`

func (q *Queries) DeleteManagedUser(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteManagedUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
