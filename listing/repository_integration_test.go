package listing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"medmarket/vendor"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestProposalLifecycle_Integration connects to a real PostgreSQL via
// DATABASE_URL and verifies the end-to-end repository + service behavior:
// counter maintenance, the duplicate backstop, and the decision machine.
func TestProposalLifecycle_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	for _, tbl := range []string{"users", "vendors", "listings", "proposals", "outbox"} {
		if !tableExists(ctx, pool, tbl) {
			t.Skipf("table %s does not exist; apply migrations first", tbl)
		}
	}

	mustInsert := func(query string, args ...any) string {
		var id string
		if err := pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
			t.Fatalf("seed statement failed: %v", err)
		}
		return id
	}

	nonce := time.Now().UnixNano()
	customerID := mustInsert(`INSERT INTO users (email, full_name, role) VALUES ($1, 'Test Customer', 'customer') RETURNING id`,
		fmt.Sprintf("cust+%d@example.com", nonce))
	vendorID := mustInsert(`INSERT INTO users (email, full_name, role) VALUES ($1, 'Test Vendor', 'vendor') RETURNING id`,
		fmt.Sprintf("vend+%d@example.com", nonce))
	otherVendorID := mustInsert(`INSERT INTO users (email, full_name, role) VALUES ($1, 'Other Vendor', 'vendor') RETURNING id`,
		fmt.Sprintf("vend2+%d@example.com", nonce))
	mustInsert(`INSERT INTO vendors (user_id, company_name) VALUES ($1, 'Acme Health') RETURNING user_id`, vendorID)
	mustInsert(`INSERT INTO vendors (user_id, company_name) VALUES ($1, 'Beta Health') RETURNING user_id`, otherVendorID)

	listingRepo := NewRepository(pool)
	vendorRepo := vendor.NewRepository(pool)
	listingSvc := NewService(pool, listingRepo, nil)
	proposalSvc := NewProposalService(pool, NewProposalRepository(pool), listingRepo, vendorRepo)

	created, err := listingSvc.Create(ctx, CreateParams{
		CustomerUserID: customerID,
		Title:          fmt.Sprintf("Integration listing %d", nonce),
		Category:       "telehealth",
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	first, err := proposalSvc.Submit(ctx, SubmitParams{
		ListingID:    created.ID,
		VendorUserID: vendorID,
		ProposalText: "first bid",
	})
	if err != nil {
		t.Fatalf("submit first proposal: %v", err)
	}
	if first.VendorName != "Acme Health" {
		t.Fatalf("expected vendor name snapshot, got %q", first.VendorName)
	}

	// same vendor again: the unique constraint backstop must hold
	if _, err := proposalSvc.Submit(ctx, SubmitParams{
		ListingID:    created.ID,
		VendorUserID: vendorID,
		ProposalText: "second bid",
	}); !errors.Is(err, ErrProposalDuplicate) {
		t.Fatalf("expected ErrProposalDuplicate, got %v", err)
	}

	if _, err := proposalSvc.Submit(ctx, SubmitParams{
		ListingID:    created.ID,
		VendorUserID: otherVendorID,
		ProposalText: "competing bid",
	}); err != nil {
		t.Fatalf("submit competing proposal: %v", err)
	}

	after, err := listingRepo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload listing: %v", err)
	}
	if after.ProposalsCount != 2 {
		t.Fatalf("expected proposals_count 2, got %d", after.ProposalsCount)
	}

	accepted, err := proposalSvc.SetStatus(ctx, SetStatusParams{
		ProposalID: first.ID,
		ActorID:    customerID,
		ActorRole:  "customer",
		NewStatus:  ProposalAccepted,
	})
	if err != nil {
		t.Fatalf("accept proposal: %v", err)
	}
	if accepted.Status != ProposalAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	// replaying the same decision is a no-op
	if _, err := proposalSvc.SetStatus(ctx, SetStatusParams{
		ProposalID: first.ID,
		ActorID:    customerID,
		ActorRole:  "customer",
		NewStatus:  ProposalAccepted,
	}); err != nil {
		t.Fatalf("replay accept: %v", err)
	}

	// flipping a decided proposal is rejected
	if _, err := proposalSvc.SetStatus(ctx, SetStatusParams{
		ProposalID: first.ID,
		ActorID:    customerID,
		ActorRole:  "customer",
		NewStatus:  ProposalRejected,
	}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// an accepted proposal makes the listing count as solved for the vendor
	solvedSvc := NewSolvedService(listingRepo, 50)
	solved, err := solvedSvc.SolvedListingsFor(ctx, vendorID)
	if err != nil {
		t.Fatalf("solved for winning vendor: %v", err)
	}
	found := false
	for _, l := range solved {
		if l.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected listing %s in solved set", created.ID)
	}

	// a pending proposal earns no credit
	solved, err = solvedSvc.SolvedListingsFor(ctx, otherVendorID)
	if err != nil {
		t.Fatalf("solved for other vendor: %v", err)
	}
	for _, l := range solved {
		if l.ID == created.ID {
			t.Fatalf("pending proposal must not count as solved")
		}
	}

	// closing the listing stops further submissions
	if _, err := listingSvc.Close(ctx, StatusChangeParams{
		ListingID: created.ID,
		ActorID:   customerID,
		ActorRole: "customer",
	}); err != nil {
		t.Fatalf("close listing: %v", err)
	}
	thirdVendorID := mustInsert(`INSERT INTO users (email, full_name, role) VALUES ($1, 'Late Vendor', 'vendor') RETURNING id`,
		fmt.Sprintf("vend3+%d@example.com", nonce))
	mustInsert(`INSERT INTO vendors (user_id, company_name) VALUES ($1, 'Late Health') RETURNING user_id`, thirdVendorID)
	if _, err := proposalSvc.Submit(ctx, SubmitParams{
		ListingID:    created.ID,
		VendorUserID: thirdVendorID,
		ProposalText: "too late",
	}); !errors.Is(err, ErrNotAccepting) {
		t.Fatalf("expected ErrNotAccepting after close, got %v", err)
	}
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, name string) bool {
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, name).Scan(&exists)
	return err == nil && exists
}
