package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medmarket/notify"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal is a vendor's bid against a listing. All fields except Status are
// immutable after creation; VendorName is a snapshot of the vendor's display
// name at submission time and is never re-synced.
type Proposal struct {
	ID               string
	ListingID        string
	VendorUserID     string
	VendorName       string
	ProposalText     string
	ProposedPrice    string
	ProposedTimeline string
	Status           ProposalStatus
	SubmittedAt      time.Time
}

var (
	ErrProposalNotFound = errors.New("listing: proposal not found")
	// ErrProposalDuplicate signals the vendor has already submitted against
	// this listing.
	ErrProposalDuplicate = errors.New("listing: proposal already submitted")
	// ErrNotAccepting signals the listing is not open for proposals.
	ErrNotAccepting = errors.New("listing: not accepting proposals")
	// ErrVendorProfileMissing signals the caller has no vendor profile.
	ErrVendorProfileMissing = errors.New("listing: vendor profile not found")
	// ErrProposalForbidden signals the caller may not decide this proposal.
	ErrProposalForbidden = errors.New("listing: proposal forbidden")
	// ErrInvalidTransition signals a status change other than pending to
	// accepted or pending to rejected.
	ErrInvalidTransition = errors.New("listing: invalid proposal transition")
)

type ProposalRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, p Proposal) (Proposal, error)
	GetByID(ctx context.Context, proposalID string) (Proposal, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, proposalID string) (Proposal, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, proposalID string, status ProposalStatus) (Proposal, error)
	ListForListing(ctx context.Context, listingID string) ([]Proposal, error)
}

type PGProposalRepository struct {
	pool *pgxpool.Pool
}

func NewProposalRepository(pool *pgxpool.Pool) *PGProposalRepository {
	return &PGProposalRepository{pool: pool}
}

const proposalColumns = `id, listing_id, vendor_user_id, vendor_name, proposal_text, proposed_price, proposed_timeline, status::text, submitted_at`

func (r *PGProposalRepository) Insert(ctx context.Context, tx pgx.Tx, p Proposal) (Proposal, error) {
	const query = `
		INSERT INTO proposals (id, listing_id, vendor_user_id, vendor_name, proposal_text, proposed_price, proposed_timeline, status)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + proposalColumns + `
	`

	created, err := scanProposal(tx.QueryRow(ctx, query,
		p.ID,
		p.ListingID,
		p.VendorUserID,
		p.VendorName,
		p.ProposalText,
		p.ProposedPrice,
		p.ProposedTimeline,
		p.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Proposal{}, ErrProposalDuplicate
		}
		return Proposal{}, fmt.Errorf("listing: insert proposal: %w", err)
	}
	return created, nil
}

func (r *PGProposalRepository) GetByID(ctx context.Context, proposalID string) (Proposal, error) {
	const query = `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`

	p, err := scanProposal(r.pool.QueryRow(ctx, query, proposalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, ErrProposalNotFound
		}
		return Proposal{}, fmt.Errorf("listing: get proposal: %w", err)
	}
	return p, nil
}

func (r *PGProposalRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, proposalID string) (Proposal, error) {
	const query = `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1 FOR UPDATE`

	p, err := scanProposal(tx.QueryRow(ctx, query, proposalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, ErrProposalNotFound
		}
		return Proposal{}, fmt.Errorf("listing: get proposal for update: %w", err)
	}
	return p, nil
}

func (r *PGProposalRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, proposalID string, status ProposalStatus) (Proposal, error) {
	const query = `
		UPDATE proposals
		SET status = $2::proposal_status
		WHERE id = $1
		RETURNING ` + proposalColumns + `
	`

	p, err := scanProposal(tx.QueryRow(ctx, query, proposalID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Proposal{}, ErrProposalNotFound
		}
		return Proposal{}, fmt.Errorf("listing: update proposal status: %w", err)
	}
	return p, nil
}

// ListForListing returns a listing's proposals in submission order.
func (r *PGProposalRepository) ListForListing(ctx context.Context, listingID string) ([]Proposal, error) {
	const query = `SELECT ` + proposalColumns + ` FROM proposals WHERE listing_id = $1 ORDER BY submitted_at ASC`

	rows, err := r.pool.Query(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing: list proposals: %w", err)
	}
	defer rows.Close()

	proposals := make([]Proposal, 0, 8)
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("listing: scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing: iterate proposals: %w", err)
	}
	return proposals, nil
}

func scanProposal(row pgx.Row) (Proposal, error) {
	var p Proposal
	return p, row.Scan(
		&p.ID,
		&p.ListingID,
		&p.VendorUserID,
		&p.VendorName,
		&p.ProposalText,
		&p.ProposedPrice,
		&p.ProposedTimeline,
		&p.Status,
		&p.SubmittedAt,
	)
}

// VendorDirectory resolves a caller identity to a vendor display name.
// ok reports whether a vendor profile exists for the identity.
type VendorDirectory interface {
	Lookup(ctx context.Context, vendorUserID string) (name string, ok bool, err error)
}

// ProposalService enforces the listing's proposal lifecycle: one proposal
// per vendor, submissions only while the listing is active, and the
// pending-to-accepted / pending-to-rejected decision machine.
type ProposalService struct {
	pool       TxBeginner
	repo       ProposalRepository
	listings   Repository
	vendors    VendorDirectory
	outbox     notify.Writer
	autoNotify bool
	idGen      func() string
	now        func() time.Time
}

func NewProposalService(pool TxBeginner, repo ProposalRepository, listings Repository, vendors VendorDirectory) *ProposalService {
	return &ProposalService{
		pool:     pool,
		repo:     repo,
		listings: listings,
		vendors:  vendors,
		idGen:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

func (s *ProposalService) WithOutbox(outbox notify.Writer, autoNotify bool) *ProposalService {
	s.outbox = outbox
	s.autoNotify = autoNotify
	return s
}

func (s *ProposalService) WithIDGenerator(gen func() string) *ProposalService {
	s.idGen = gen
	return s
}

type SubmitParams struct {
	ListingID        string
	VendorUserID     string
	ProposalText     string
	ProposedPrice    string
	ProposedTimeline string
}

// Submit appends a pending proposal to an active listing. The listing row
// lock serializes concurrent submissions; the (listing_id, vendor_user_id)
// unique constraint backstops the duplicate check so two racing submissions
// from the same vendor can never both land.
func (s *ProposalService) Submit(ctx context.Context, params SubmitParams) (Proposal, error) {
	if params.ListingID == "" {
		return Proposal{}, fmt.Errorf("listing: submit missing listing id")
	}
	if params.VendorUserID == "" {
		return Proposal{}, fmt.Errorf("listing: submit missing vendor user id")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Proposal{}, fmt.Errorf("listing: begin submit tx: %w", err)
	}
	defer tx.Rollback(ctx)

	l, err := s.listings.GetForUpdate(ctx, tx, params.ListingID)
	if err != nil {
		return Proposal{}, err
	}
	if l.Status != StatusActive {
		return Proposal{}, ErrNotAccepting
	}

	vendorName, ok, err := s.vendors.Lookup(ctx, params.VendorUserID)
	if err != nil {
		return Proposal{}, fmt.Errorf("listing: resolve vendor: %w", err)
	}
	if !ok {
		return Proposal{}, ErrVendorProfileMissing
	}

	created, err := s.repo.Insert(ctx, tx, Proposal{
		ID:               s.idGen(),
		ListingID:        l.ID,
		VendorUserID:     params.VendorUserID,
		VendorName:       vendorName,
		ProposalText:     params.ProposalText,
		ProposedPrice:    params.ProposedPrice,
		ProposedTimeline: params.ProposedTimeline,
		Status:           ProposalPending,
	})
	if err != nil {
		return Proposal{}, err
	}

	if err := s.listings.IncrementProposals(ctx, tx, l.ID); err != nil {
		return Proposal{}, err
	}

	if s.outbox != nil && s.autoNotify {
		payload := map[string]any{
			"listing_id":  l.ID,
			"proposal_id": created.ID,
			"vendor":      created.VendorUserID,
			"target":      l.CustomerUserID,
		}
		if err := s.outbox.Enqueue(ctx, tx, notify.TopicProposalSubmitted, payload); err != nil {
			return Proposal{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Proposal{}, fmt.Errorf("listing: commit submit: %w", err)
	}

	return created, nil
}

type SetStatusParams struct {
	ProposalID string
	ActorID    string
	ActorRole  string
	NewStatus  ProposalStatus
}

// SetStatus decides a pending proposal. Only the listing owner or an admin
// may decide; the only legal transitions move a pending proposal to
// accepted or rejected. Replaying the same decision is an idempotent no-op.
func (s *ProposalService) SetStatus(ctx context.Context, params SetStatusParams) (Proposal, error) {
	if params.ProposalID == "" {
		return Proposal{}, fmt.Errorf("listing: set status missing proposal id")
	}
	if params.ActorID == "" {
		return Proposal{}, fmt.Errorf("listing: set status missing actor id")
	}
	if params.NewStatus != ProposalAccepted && params.NewStatus != ProposalRejected {
		return Proposal{}, ErrInvalidTransition
	}

	// Resolve the listing outside the transaction so locks are always taken
	// listing-first, matching Submit.
	prelim, err := s.repo.GetByID(ctx, params.ProposalID)
	if err != nil {
		return Proposal{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Proposal{}, fmt.Errorf("listing: begin decision tx: %w", err)
	}
	defer tx.Rollback(ctx)

	l, err := s.listings.GetForUpdate(ctx, tx, prelim.ListingID)
	if err != nil {
		return Proposal{}, err
	}
	if params.ActorRole != "admin" && l.CustomerUserID != params.ActorID {
		return Proposal{}, ErrProposalForbidden
	}

	p, err := s.repo.GetForUpdate(ctx, tx, params.ProposalID)
	if err != nil {
		return Proposal{}, err
	}

	switch {
	case p.Status == params.NewStatus:
		return p, nil
	case p.Status != ProposalPending:
		return Proposal{}, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, params.ProposalID, params.NewStatus)
	if err != nil {
		return Proposal{}, err
	}

	if s.outbox != nil && s.autoNotify {
		topic := notify.TopicProposalRejected
		if params.NewStatus == ProposalAccepted {
			topic = notify.TopicProposalAccepted
		}
		payload := map[string]any{
			"listing_id":  updated.ListingID,
			"proposal_id": updated.ID,
			"target":      updated.VendorUserID,
			"status":      updated.Status,
		}
		if err := s.outbox.Enqueue(ctx, tx, topic, payload); err != nil {
			return Proposal{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Proposal{}, fmt.Errorf("listing: commit decision: %w", err)
	}

	return updated, nil
}

// ListForListing exposes a listing's proposals in submission order.
func (s *ProposalService) ListForListing(ctx context.Context, listingID string) ([]Proposal, error) {
	return s.repo.ListForListing(ctx, listingID)
}
