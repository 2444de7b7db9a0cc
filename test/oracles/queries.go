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
			Name: "O1_proposals_count_matches",
			SQL: `SELECT l.id, l.proposals_count, COUNT(p.id)
                  FROM listings l
                  LEFT JOIN proposals p ON p.listing_id = l.id
                  GROUP BY l.id, l.proposals_count
                  HAVING l.proposals_count <> COUNT(p.id)`,
		},
		{
			Name: "O2_one_proposal_per_vendor",
			SQL: `SELECT listing_id, vendor_user_id, COUNT(*)
                  FROM proposals
                  GROUP BY listing_id, vendor_user_id
                  HAVING COUNT(*) > 1`,
		},
		{
			Name: "O3_verified_iff_ledger",
			SQL: `SELECT v.user_id, v.verified
                  FROM vendors v
                  WHERE v.verified <> EXISTS (
                      SELECT 1 FROM verifications vf WHERE vf.vendor_user_id = v.user_id)`,
		},
		{
			Name: "O4_ledger_one_per_customer",
			SQL: `SELECT vendor_user_id, customer_user_id, COUNT(*)
                  FROM verifications
                  GROUP BY vendor_user_id, customer_user_id
                  HAVING COUNT(*) > 1`,
		},
		{
			Name: "O5_verified_testimonial_attributed",
			SQL: `SELECT id FROM testimonials
                  WHERE verified = true AND customer_user_id IS NULL`,
		},
		{
			Name: "O6_outbox_not_stale",
			SQL: `SELECT id::text FROM outbox
                  WHERE status NOT IN ('processed','dead')
                    AND now() - created_at > interval '5 minutes'`,
		},
		{
			Name: "O7_counter_nonnegative",
			SQL:  `SELECT id FROM listings WHERE proposals_count < 0`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample
// row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
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
