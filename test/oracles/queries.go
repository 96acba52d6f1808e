// Package oracles holds SQL invariant checks run against the live database
// while the actor workload is in flight. Each query returns rows only when an
// invariant is violated.
package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_approved_needs_senior_approve",
			SQL: `SELECT id, status, manager_decision, senior_decision FROM registrations
                  WHERE status = 'approved' AND senior_decision IS DISTINCT FROM 'approve'`,
		},
		{
			Name: "O2_rejected_needs_reject_decision",
			SQL: `SELECT id, status, manager_decision, senior_decision FROM registrations
                  WHERE status = 'rejected'
                    AND manager_decision IS DISTINCT FROM 'reject'
                    AND senior_decision IS DISTINCT FROM 'reject'`,
		},
		{
			Name: "O3_pending_approval_shape",
			SQL: `SELECT id, manager_decision, senior_decision FROM registrations
                  WHERE status = 'pending_approval'
                    AND (manager_decision IS DISTINCT FROM 'approve' OR senior_decision IS NOT NULL)`,
		},
		{
			Name: "O4_needs_info_has_needs_info_decision",
			SQL: `SELECT id, manager_decision, senior_decision FROM registrations
                  WHERE status = 'needs_info'
                    AND manager_decision IS DISTINCT FROM 'needs_info'
                    AND senior_decision IS DISTINCT FROM 'needs_info'`,
		},
		{
			Name: "O5_executed_only_when_approved",
			SQL:  `SELECT id, status FROM registrations WHERE executed AND status <> 'approved'`,
		},
		{
			Name: "O6_executed_not_before_effective",
			SQL: `SELECT id, effective_date FROM registrations
                  WHERE executed AND effective_date > now()`,
		},
		{
			Name: "O7_cancelled_records_attribution",
			SQL: `SELECT id FROM registrations
                  WHERE (status = 'cancelled') <> (cancelled_by IS NOT NULL)`,
		},
		{
			Name: "O8_decision_attribution",
			SQL: `SELECT id FROM registrations
                  WHERE (manager_decision IS NOT NULL AND (manager_id IS NULL OR manager_decided_at IS NULL))
                     OR (senior_decision IS NOT NULL AND (senior_id IS NULL OR senior_decided_at IS NULL))`,
		},
		{
			Name: "O9_negotiation_log_is_array",
			SQL:  `SELECT id FROM registrations WHERE jsonb_typeof(negotiation_log) <> 'array'`,
		},
		{
			Name: "O10_negotiation_entries_attributed",
			SQL: `SELECT r.id, e.value FROM registrations r,
                  jsonb_array_elements(r.negotiation_log) e
                  WHERE coalesce(e.value->>'actor_id', '') = ''
                     OR coalesce(e.value->>'actor_name', '') = ''
                     OR coalesce(e.value->>'content', '') = ''`,
		},
		{
			Name: "O11_executed_customer_has_tier",
			SQL: `SELECT r.id, r.customer_id FROM registrations r
                  JOIN customers c ON c.id = r.customer_id
                  WHERE r.executed AND c.tier_id IS NULL`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row
// text) or an empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
