// internal/db/activity.sql.go
package db

import "context"

type ActivityLog struct {
	ID        int64
	ActorName string
	ActorRole string
	Action    string
	Type      string
	Details   string
	CreatedAt int64
}

const activityColumns = `id, actor_name, actor_role, action, type, details, created_at`

func scanActivity(row interface{ Scan(...any) error }) (ActivityLog, error) {
	var i ActivityLog
	err := row.Scan(
		&i.ID,
		&i.ActorName,
		&i.ActorRole,
		&i.Action,
		&i.Type,
		&i.Details,
		&i.CreatedAt,
	)
	return i, err
}

const createActivity = `INSERT INTO activity_log (actor_name, actor_role, action, type, details, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + activityColumns

type CreateActivityParams struct {
	ActorName string
	ActorRole string
	Action    string
	Type      string
	Details   string
	CreatedAt int64
}

func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) (ActivityLog, error) {
	row := q.db.QueryRowContext(ctx, createActivity,
		arg.ActorName,
		arg.ActorRole,
		arg.Action,
		arg.Type,
		arg.Details,
		arg.CreatedAt,
	)
	return scanActivity(row)
}

const listActivity = `SELECT ` + activityColumns + `
FROM activity_log
WHERE (?1 = '' OR type = ?1)
  AND (?2 = ''
       OR instr(lower(actor_name), lower(?2)) > 0
       OR instr(lower(action), lower(?2)) > 0
       OR instr(lower(details), lower(?2)) > 0)
ORDER BY created_at DESC, id DESC
LIMIT ?3`

type ListActivityParams struct {
	Type   string
	Search string
	Limit  int64
}

// ListActivity returns the newest entries first, optionally filtered by type and search text.
func (q *Queries) ListActivity(ctx context.Context, arg ListActivityParams) ([]ActivityLog, error) {
	rows, err := q.db.QueryContext(ctx, listActivity, arg.Type, arg.Search, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ActivityLog{}
	for rows.Next() {
		i, err := scanActivity(rows)
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

const countActivitySince = `SELECT type, COUNT(*) FROM activity_log WHERE created_at >= ? GROUP BY type ORDER BY type`

type ActivityCount struct {
	Type  string
	Count int64
}

func (q *Queries) CountActivitySince(ctx context.Context, since int64) ([]ActivityCount, error) {
	rows, err := q.db.QueryContext(ctx, countActivitySince, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ActivityCount{}
	for rows.Next() {
		var i ActivityCount
		if err := rows.Scan(&i.Type, &i.Count); err != nil {
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
