package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Submitter races proposal submissions against the same listing. It mirrors
// the service's transaction shape: lock the listing row, insert the
// proposal, bump the stored counter. Unique-constraint violations are the
// expected outcome once a vendor has landed a proposal.
func Submitter(ctx context.Context, pool *pgxpool.Pool, listingID string, vendorIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		vendorID := vendorIDs[rand.Intn(len(vendorIDs))]
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		var status string
		err = tx.QueryRow(ctx, `SELECT status::text FROM listings WHERE id=$1 FOR UPDATE`, listingID).Scan(&status)
		if err == nil && status == "active" {
			_, err = tx.Exec(ctx, `INSERT INTO proposals (listing_id, vendor_user_id, vendor_name, proposal_text)
                                   VALUES ($1,$2,'Stress Vendor','we can do it')`, listingID, vendorID)
			if err == nil {
				_, err = tx.Exec(ctx, `UPDATE listings SET proposals_count = proposals_count + 1 WHERE id=$1`, listingID)
				if err == nil {
					_, _ = tx.Exec(ctx, `INSERT INTO outbox (topic, payload) VALUES ('proposal.submitted', jsonb_build_object('listing_id',$1))`, listingID)
					err = tx.Commit(ctx)
				}
			}
		}
		_ = tx.Rollback(ctx)

		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code != "23505" {
				return fmt.Errorf("submitter insert: %w", err)
			}
			// duplicates are expected under contention; killed backends
			// surface as plain connection errors and the loop retries
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Decider flips pending proposals to accepted or rejected, taking the
// listing lock first the way the service does.
func Decider(ctx context.Context, pool *pgxpool.Pool, listingID string, stop <-chan struct{}) error {
	targets := []string{"accepted", "rejected"}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		var dummy string
		err = tx.QueryRow(ctx, `SELECT id::text FROM listings WHERE id=$1 FOR UPDATE`, listingID).Scan(&dummy)
		if err == nil {
			var proposalID string
			err = tx.QueryRow(ctx, `SELECT id::text FROM proposals WHERE listing_id=$1 AND status='pending' LIMIT 1 FOR UPDATE`, listingID).Scan(&proposalID)
			if err == nil {
				target := targets[rand.Intn(len(targets))]
				_, err = tx.Exec(ctx, `UPDATE proposals SET status=$2::proposal_status WHERE id=$1 AND status='pending'`, proposalID, target)
				if err == nil {
					_, _ = tx.Exec(ctx, `INSERT INTO outbox (topic, payload) VALUES ('proposal.'||$2, jsonb_build_object('proposal_id',$1))`, proposalID, target)
					_ = tx.Commit(ctx)
				}
			}
		}
		_ = tx.Rollback(ctx)
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Verifier replays customer attestations against the same vendor. The
// ledger's primary key makes replays no-ops; only an actual insert may flip
// the verified flag.
func Verifier(ctx context.Context, pool *pgxpool.Pool, vendorID string, customerIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		customerID := customerIDs[rand.Intn(len(customerIDs))]
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `INSERT INTO verifications (vendor_user_id, customer_user_id, customer_name)
                                  VALUES ($1,$2,'Stress Customer') ON CONFLICT DO NOTHING`, vendorID, customerID)
		if err == nil {
			if tag.RowsAffected() > 0 {
				_, err = tx.Exec(ctx, `UPDATE vendors SET verified=true WHERE user_id=$1`, vendorID)
			}
			if err == nil {
				_ = tx.Commit(ctx)
			}
		}
		_ = tx.Rollback(ctx)
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// OutboxWorker consumes pending outbox messages with SKIP LOCKED, randomly
// failing some deliveries to exercise the retry path.
func OutboxWorker(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT id FROM outbox WHERE status='pending' ORDER BY created_at FOR UPDATE SKIP LOCKED LIMIT 10`)
		if err != nil {
			_ = tx.Rollback(ctx)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		ids := make([]string, 0, 10)
		for rows.Next() {
			var id string
			_ = rows.Scan(&id)
			ids = append(ids, id)
		}
		rows.Close()
		for _, id := range ids {
			if rand.Intn(10) == 0 {
				_, _ = tx.Exec(ctx, `UPDATE outbox SET attempts=attempts+1 WHERE id=$1`, id)
				continue
			}
			_, _ = tx.Exec(ctx, `UPDATE outbox SET status='processed' WHERE id=$1`, id)
		}
		_ = tx.Commit(ctx)
		time.Sleep(100 * time.Millisecond)
	}
}

// Reviewer submits customer testimonials, writing the testimonial and the
// ledger entry in one transaction the way the service does.
func Reviewer(ctx context.Context, pool *pgxpool.Pool, vendorID string, customerIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		customerID := customerIDs[rand.Intn(len(customerIDs))]
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `INSERT INTO testimonials (vendor_user_id, customer_name, testimonial, verified, customer_user_id)
                               VALUES ($1, 'Stress Customer', $2, true, $3)`, vendorID, fmt.Sprintf("run %d", rand.Int63()), customerID)
		if err == nil {
			var tag pgconn.CommandTag
			tag, err = tx.Exec(ctx, `INSERT INTO verifications (vendor_user_id, customer_user_id, customer_name)
                                     VALUES ($1,$2,'Stress Customer') ON CONFLICT DO NOTHING`, vendorID, customerID)
			if err == nil {
				if tag.RowsAffected() > 0 {
					_, err = tx.Exec(ctx, `UPDATE vendors SET verified=true WHERE user_id=$1`, vendorID)
				}
				if err == nil {
					_ = tx.Commit(ctx)
				}
			}
		}
		_ = tx.Rollback(ctx)
		time.Sleep(time.Duration(150+rand.Intn(100)) * time.Millisecond)
	}
}
