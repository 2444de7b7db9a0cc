package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"medmarket/test/actors"
	"medmarket/test/chaos"
	"medmarket/test/infra"
	"medmarket/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func TestMarketplaceConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	rand.Seed(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	seedData := mustSeed(t, ctx, pool)

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// submitters and deciders battling over the same listing
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error {
			return actors.Submitter(ctx2, pool, seedData.listingID, seedData.vendorIDs, stop)
		})
		g.Go(func() error { return actors.Decider(ctx2, pool, seedData.listingID, stop) })
	}

	// customers replaying verifications of the same vendor
	g.Go(func() error {
		return actors.Verifier(ctx2, pool, seedData.vendorIDs[0], seedData.customerIDs, stop)
	})
	// customer testimonials feeding the ledger in the same tx
	g.Go(func() error {
		return actors.Reviewer(ctx2, pool, seedData.vendorIDs[0], seedData.customerIDs, stop)
	})
	// outbox worker
	g.Go(func() error { return actors.OutboxWorker(ctx2, pool, stop) })
	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, stop)

	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	customerIDs []string
	vendorIDs   []string
	listingID   string
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool) seedIDs {
	t.Helper()
	var s seedIDs

	for i := 0; i < 4; i++ {
		var id string
		if err := pool.QueryRow(ctx, `INSERT INTO users (email, full_name, role) VALUES ($1,$2,'customer') RETURNING id`,
			fmt.Sprintf("cust%d-%d@example.com", i, rand.Int63()), "Stress Customer").Scan(&id); err != nil {
			t.Fatalf("seed customer: %v", err)
		}
		s.customerIDs = append(s.customerIDs, id)
	}

	for i := 0; i < 6; i++ {
		var id string
		if err := pool.QueryRow(ctx, `INSERT INTO users (email, full_name, role) VALUES ($1,$2,'vendor') RETURNING id`,
			fmt.Sprintf("vend%d-%d@example.com", i, rand.Int63()), "Stress Vendor").Scan(&id); err != nil {
			t.Fatalf("seed vendor user: %v", err)
		}
		if _, err := pool.Exec(ctx, `INSERT INTO vendors (user_id, company_name) VALUES ($1, $2)`,
			id, fmt.Sprintf("Vendor Co %d", i)); err != nil {
			t.Fatalf("seed vendor profile: %v", err)
		}
		s.vendorIDs = append(s.vendorIDs, id)
	}

	if err := pool.QueryRow(ctx, `INSERT INTO listings (customer_user_id, title, category) VALUES ($1,'Stress listing','telehealth') RETURNING id`,
		s.customerIDs[0]).Scan(&s.listingID); err != nil {
		t.Fatalf("seed listing: %v", err)
	}

	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"listings", `SELECT id, status, proposals_count FROM listings ORDER BY created_at DESC LIMIT 20`},
		{"proposals", `SELECT id, listing_id, vendor_user_id, status, submitted_at FROM proposals ORDER BY submitted_at DESC LIMIT 50`},
		{"verifications", `SELECT vendor_user_id, customer_user_id, verified_at FROM verifications ORDER BY verified_at DESC LIMIT 50`},
		{"outbox", `SELECT id, topic, status, attempts, created_at FROM outbox ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
