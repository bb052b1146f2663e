package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"callcenter-platform/internal/taskrouter"
	"callcenter-platform/pkg/utils"
)

// PostgresStore persists the mirror in Postgres.
//
// NOTE: This store assumes the following tables exist:
// - workers (sid UNIQUE, attributes JSONB)
// - tasks (sid UNIQUE, attributes JSONB)
// - reservations (sid UNIQUE)
//
// Saves are UPDATE-only by design: rows are created by the provisioning path,
// never by reconciliation. A save matching zero rows is not an error; the
// engine has already established the row exists, and a concurrent delete
// simply wins (last-write-wins all the way down).

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) WorkerBySid(ctx context.Context, sid string) (taskrouter.Worker, bool, error) {
	const q = `
SELECT id, sid, friendly_name, activity_sid, activity_name, available, attributes, created_at, updated_at
FROM workers
WHERE sid = $1
`
	var w taskrouter.Worker
	var attrs []byte
	err := s.db.QueryRowContext(ctx, q, sid).Scan(
		&w.ID,
		&w.Sid,
		&w.FriendlyName,
		&w.ActivitySid,
		&w.ActivityName,
		&w.Available,
		&attrs,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return taskrouter.Worker{}, false, nil
		}
		return taskrouter.Worker{}, false, err
	}
	w.Attributes = decodeAttrs(attrs)
	return w, true, nil
}

func (s *PostgresStore) SaveWorker(ctx context.Context, w taskrouter.Worker) error {
	const q = `
UPDATE workers
SET friendly_name = $2,
    activity_sid = $3,
    activity_name = $4,
    available = $5,
    attributes = $6,
    updated_at = $7
WHERE sid = $1
`
	attrs, err := encodeAttrs(w.Attributes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q,
		w.Sid,
		w.FriendlyName,
		w.ActivitySid,
		w.ActivityName,
		w.Available,
		attrs,
		w.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) DeleteWorker(ctx context.Context, sid string) error {
	const q = `DELETE FROM workers WHERE sid = $1`
	_, err := s.db.ExecContext(ctx, q, sid)
	return err
}

func (s *PostgresStore) TaskBySid(ctx context.Context, sid string) (taskrouter.Task, bool, error) {
	const q = `
SELECT id, sid, queue_sid, queue_name, priority, assignment_status, worker_sid, attributes, created_at, updated_at
FROM tasks
WHERE sid = $1
`
	t, err := scanTask(s.db.QueryRowContext(ctx, q, sid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return taskrouter.Task{}, false, nil
		}
		return taskrouter.Task{}, false, err
	}
	return t, true, nil
}

func (s *PostgresStore) SaveTask(ctx context.Context, t taskrouter.Task) error {
	return execSaveTask(ctx, s.db, t)
}

func (s *PostgresStore) ReservationBySid(ctx context.Context, sid string) (taskrouter.Reservation, bool, error) {
	const q = `
SELECT id, sid, task_sid, worker_sid, status, accepted_at, rejected_at, created_at, updated_at
FROM reservations
WHERE sid = $1
`
	var r taskrouter.Reservation
	var acceptedAt, rejectedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, q, sid).Scan(
		&r.ID,
		&r.Sid,
		&r.TaskSid,
		&r.WorkerSid,
		&r.Status,
		&acceptedAt,
		&rejectedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return taskrouter.Reservation{}, false, nil
		}
		return taskrouter.Reservation{}, false, err
	}
	if acceptedAt.Valid {
		r.AcceptedAt = &acceptedAt.Time
	}
	if rejectedAt.Valid {
		r.RejectedAt = &rejectedAt.Time
	}
	return r, true, nil
}

func (s *PostgresStore) SaveReservation(ctx context.Context, r taskrouter.Reservation) error {
	return execSaveReservation(ctx, s.db, r)
}

func (s *PostgresStore) SaveReservationAndTask(ctx context.Context, r taskrouter.Reservation, t taskrouter.Task) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execSaveReservation(ctx, tx, r); err != nil {
			return err
		}
		return execSaveTask(ctx, tx, t)
	})
}

// ListWorkers returns all workers ordered by friendly name then sid.
func (s *PostgresStore) ListWorkers(ctx context.Context) ([]taskrouter.Worker, error) {
	const q = `
SELECT id, sid, friendly_name, activity_sid, activity_name, available, attributes, created_at, updated_at
FROM workers
ORDER BY friendly_name, sid
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taskrouter.Worker
	for rows.Next() {
		var w taskrouter.Worker
		var attrs []byte
		if err := rows.Scan(
			&w.ID,
			&w.Sid,
			&w.FriendlyName,
			&w.ActivitySid,
			&w.ActivityName,
			&w.Available,
			&attrs,
			&w.CreatedAt,
			&w.UpdatedAt,
		); err != nil {
			return nil, err
		}
		w.Attributes = decodeAttrs(attrs)
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListTasks returns all tasks ordered by priority (most urgent first), then
// creation time.
func (s *PostgresStore) ListTasks(ctx context.Context) ([]taskrouter.Task, error) {
	const q = `
SELECT id, sid, queue_sid, queue_name, priority, assignment_status, worker_sid, attributes, created_at, updated_at
FROM tasks
ORDER BY priority DESC, created_at
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taskrouter.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (taskrouter.Task, error) {
	var t taskrouter.Task
	var workerSid sql.NullString
	var attrs []byte
	if err := row.Scan(
		&t.ID,
		&t.Sid,
		&t.QueueSid,
		&t.QueueName,
		&t.Priority,
		&t.AssignmentStatus,
		&workerSid,
		&attrs,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return taskrouter.Task{}, err
	}
	t.WorkerSid = workerSid.String
	t.Attributes = decodeAttrs(attrs)
	return t, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execSaveTask(ctx context.Context, ex execer, t taskrouter.Task) error {
	const q = `
UPDATE tasks
SET queue_sid = $2,
    queue_name = $3,
    priority = $4,
    assignment_status = $5,
    worker_sid = NULLIF($6, ''),
    attributes = $7,
    updated_at = $8
WHERE sid = $1
`
	attrs, err := encodeAttrs(t.Attributes)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, q,
		t.Sid,
		t.QueueSid,
		t.QueueName,
		t.Priority,
		t.AssignmentStatus,
		t.WorkerSid,
		attrs,
		t.UpdatedAt,
	)
	return err
}

func execSaveReservation(ctx context.Context, ex execer, r taskrouter.Reservation) error {
	const q = `
UPDATE reservations
SET task_sid = $2,
    worker_sid = $3,
    status = $4,
    accepted_at = $5,
    rejected_at = $6,
    updated_at = $7
WHERE sid = $1
`
	_, err := ex.ExecContext(ctx, q,
		r.Sid,
		r.TaskSid,
		r.WorkerSid,
		r.Status,
		r.AcceptedAt,
		r.RejectedAt,
		r.UpdatedAt,
	)
	return err
}

func encodeAttrs(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func decodeAttrs(b []byte) map[string]any {
	if len(b) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}
