package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends deliveries to the webhook_deliveries table.
// INSERT-only; there are deliberately no read paths here.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, d Delivery) error {
	const q = `
INSERT INTO webhook_deliveries (
  id, event_type, resource, resource_sid, outcome_count, raw_payload, received_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
)
`
	_, err := r.db.ExecContext(ctx, q,
		d.ID,
		d.EventType,
		d.Resource,
		d.ResourceSid,
		d.OutcomeCount,
		d.RawPayload,
		d.ReceivedAt,
	)
	return err
}
