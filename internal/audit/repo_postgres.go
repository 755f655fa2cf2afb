package audit

import (
	"context"
	"database/sql"

	"incall-control/pkg/utils"
)

// PostgresRepo persists command audit events.
//
// NOTE: assumes the following table exists:
//
//	CREATE TABLE command_audit_events (
//	    id            UUID PRIMARY KEY,
//	    device_id     TEXT NOT NULL,
//	    type          TEXT NOT NULL,
//	    command       TEXT NOT NULL,
//	    call_id       INT NOT NULL DEFAULT 0,
//	    actor_user_id TEXT NOT NULL DEFAULT '',
//	    detail        TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
//
// INSERT-only by policy; consider a trigger preventing UPDATE/DELETE and
// time-based partitioning for retention.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO command_audit_events (id, device_id, type, command, call_id, actor_user_id, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, q,
			e.ID,
			e.DeviceID,
			string(e.Type),
			e.Command,
			e.CallID,
			e.ActorUserID,
			e.Detail,
			e.CreatedAt,
		)
		return err
	})
}

func (r *PostgresRepo) Recent(ctx context.Context, deviceID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `
SELECT id, device_id, type, command, call_id, actor_user_id, detail, created_at
FROM command_audit_events
WHERE device_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(
			&e.ID,
			&e.DeviceID,
			&typ,
			&e.Command,
			&e.CallID,
			&e.ActorUserID,
			&e.Detail,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
