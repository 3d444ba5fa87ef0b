package database

import (
	"context"
	"database/sql"
	"fmt"

	"asset_lifecycle_scheduler/internal/domain/alert"
)

// alertSource describes where one alert type finds its subjects.
type alertSource struct {
	from  string
	id    string
	asset string // NULL when the subject has no asset
	title string
	due   string
	where string
}

var alertSources = map[alert.Type]alertSource{
	alert.TypeOverdueCheckout: {
		from:  "checkouts c JOIN assets a ON a.id = c.asset_id JOIN users u ON u.id = c.user_id",
		id:    "c.id",
		asset: "c.asset_id",
		title: "a.name || ' (' || a.asset_tag || ') with ' || u.name",
		due:   "c.expected_checkin_at",
		where: "c.checked_in_at IS NULL",
	},
	alert.TypeLeaseExpiring: {
		from:  "leases l JOIN assets a ON a.id = l.asset_id",
		id:    "l.id",
		asset: "l.asset_id",
		title: "a.name || ' (' || a.asset_tag || ') lease from ' || l.lessor",
		due:   "l.end_date",
	},
	alert.TypeMaintenanceDue: {
		from:  "maintenance m JOIN assets a ON a.id = m.asset_id",
		id:    "m.id",
		asset: "m.asset_id",
		title: "m.title || ' on ' || a.asset_tag",
		due:   "m.scheduled_for",
		where: "m.completed_at IS NULL",
	},
	alert.TypeMaintenanceOverdue: {
		from:  "maintenance m JOIN assets a ON a.id = m.asset_id",
		id:    "m.id",
		asset: "m.asset_id",
		title: "m.title || ' on ' || a.asset_tag",
		due:   "m.scheduled_for",
		where: "m.completed_at IS NULL",
	},
	alert.TypeWarrantyExpiring: {
		from:  "warranties w JOIN assets a ON a.id = w.asset_id",
		id:    "w.id",
		asset: "w.asset_id",
		title: "a.name || ' (' || a.asset_tag || ') warranty by ' || w.provider",
		due:   "w.end_date",
		where: "w.status = 'active'",
	},
	alert.TypeAssetDue: {
		from:  "assets a",
		id:    "a.id",
		asset: "a.id",
		title: "a.name || ' (' || a.asset_tag || ')'",
		due:   "a.next_audit_date",
		where: "a.status <> 'retired'",
	},
	alert.TypeAssetPastDue: {
		from:  "assets a",
		id:    "a.id",
		asset: "a.id",
		title: "a.name || ' (' || a.asset_tag || ')'",
		due:   "a.next_audit_date",
		where: "a.status <> 'retired'",
	},
	alert.TypeRefreshDue: {
		from:  "assets a",
		id:    "a.id",
		asset: "a.id",
		title: "a.name || ' (' || a.asset_tag || ')'",
		due:   "a.eol_date",
		where: "a.status <> 'retired'",
	},
	alert.TypeContractExpiring: {
		from:  "contracts ct",
		id:    "ct.id",
		asset: "NULL::BIGINT",
		title: "ct.name || COALESCE(' with ' || ct.vendor, '')",
		due:   "ct.end_date",
	},
	alert.TypePurchaseOrderDue: {
		from:  "purchase_orders po",
		id:    "po.id",
		asset: "NULL::BIGINT",
		title: "'PO ' || po.number || ' from ' || po.supplier",
		due:   "po.expected_delivery_at",
		where: "po.received_at IS NULL AND po.status <> 'cancelled'",
	},
	alert.TypeClearanceDue: {
		from:  "clearances cl JOIN users u ON u.id = cl.user_id",
		id:    "cl.id",
		asset: "NULL::BIGINT",
		title: "cl.title || ' for ' || u.name",
		due:   "cl.due_date",
		where: "cl.status = 'pending'",
	},
	alert.TypeStaffExit: {
		from:  "users u",
		id:    "u.id",
		asset: "NULL::BIGINT",
		title: "u.name",
		due:   "u.exit_date",
		where: "u.is_active",
	},
}

// candidateQuery renders the keyset-paginated SELECT for one rule page.
func candidateQuery(q alert.CandidateQuery) (string, []any, error) {
	src, ok := alertSources[q.Rule.Type]
	if !ok {
		return "", nil, fmt.Errorf("no alert source for type %q", q.Rule.Type)
	}
	from, to := q.Rule.Window(q.Now)

	var (
		window string
		args   []any
	)
	if q.Rule.Mode == alert.ModeOverdue {
		window = fmt.Sprintf("%s < $1", src.due)
		args = []any{to}
	} else {
		window = fmt.Sprintf("%s BETWEEN $1 AND $2", src.due)
		args = []any{from, to}
	}
	where := window
	if src.where != "" {
		where = src.where + " AND " + window
	}
	n := len(args)
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s AND %s > $%d ORDER BY %s LIMIT $%d`,
		src.id, src.asset, src.title, src.due, src.from, where, src.id, n+1, src.id, n+2)
	return query, append(args, q.AfterID, q.Limit), nil
}

// PostgresAlertSourceReader reads alert candidates from the domain tables.
type PostgresAlertSourceReader struct {
	db *sql.DB
}

func NewPostgresAlertSourceReader(db *sql.DB) *PostgresAlertSourceReader {
	return &PostgresAlertSourceReader{db: db}
}

func (r *PostgresAlertSourceReader) ListCandidates(ctx context.Context, q alert.CandidateQuery) ([]alert.Candidate, error) {
	query, args, err := candidateQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing %s candidates: %w", q.Rule.Type, err)
	}
	defer rows.Close()

	var out []alert.Candidate
	for rows.Next() {
		c := alert.Candidate{SubjectType: q.Rule.SubjectType}
		if err := rows.Scan(&c.SubjectID, &c.AssetID, &c.Title, &c.DueDate); err != nil {
			return nil, fmt.Errorf("error scanning %s candidate: %w", q.Rule.Type, err)
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s candidates: %w", q.Rule.Type, err)
	}
	return out, nil
}
