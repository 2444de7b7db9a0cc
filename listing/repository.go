package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("listing: not found")
)

type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, l Listing) (Listing, error)
	List(ctx context.Context, filters Filters) ([]Listing, int, error)
	GetByID(ctx context.Context, id string) (Listing, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Listing, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Listing, error)
	IncrementProposals(ctx context.Context, tx pgx.Tx, id string) error
	SolvedForVendor(ctx context.Context, vendorUserID string, limit int) ([]Listing, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const listingColumns = `id, customer_user_id, title, description, category, budget, timeline, status::text, proposals_count, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, l Listing) (Listing, error) {
	const query = `
        INSERT INTO listings (id, customer_user_id, title, description, category, budget, timeline, status)
        VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + listingColumns + `
    `

	row := tx.QueryRow(ctx, query,
		l.ID,
		l.CustomerUserID,
		l.Title,
		l.Description,
		l.Category,
		l.Budget,
		l.Timeline,
		l.Status,
	)

	return scanListing(row)
}

func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Listing, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	if filters.SortKey == "" {
		filters.SortKey = "created_at"
	}
	if filters.SortOrder == "" {
		filters.SortOrder = "desc"
	}

	base := `SELECT ` + listingColumns + ` FROM listings`
	where := []string{"1=1"}
	args := []any{}

	if filters.CustomerUserID != "" {
		where = append(where, fmt.Sprintf("customer_user_id=$%d", len(args)+1))
		args = append(args, filters.CustomerUserID)
	}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status=$%d", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.Category != "" {
		where = append(where, fmt.Sprintf("category=$%d", len(args)+1))
		args = append(args, filters.Category)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	sortKey := mapSortKey(filters.SortKey)
	sortOrder := strings.ToUpper(filters.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`%s%s ORDER BY %s %s LIMIT %d OFFSET %d`, base, whereClause, sortKey, sortOrder, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing: query list: %w", err)
	}
	defer rows.Close()

	list := []Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("listing: iterate list: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM listings%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listing: count list: %w", err)
	}

	return list, total, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Listing, error) {
	const query = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	l, err := scanListing(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, fmt.Errorf("listing: get by id: %w", err)
	}
	return l, nil
}

// GetForUpdate locks the listing row for the remainder of the transaction.
// Every proposal mutation goes through this lock, so writes against one
// listing are serialized.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Listing, error) {
	const query = `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 FOR UPDATE`

	l, err := scanListing(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, fmt.Errorf("listing: get for update: %w", err)
	}
	return l, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Listing, error) {
	const query = `
		UPDATE listings
		SET status = $2,
		    updated_at = get_tx_timestamp()
		WHERE id = $1
		RETURNING ` + listingColumns + `
	`

	l, err := scanListing(tx.QueryRow(ctx, query, id, status))
	if err != nil {
		return Listing{}, fmt.Errorf("listing: update status: %w", err)
	}
	return l, nil
}

// IncrementProposals bumps the stored counter. Callers must run it in the
// same transaction as the proposal insert so the counter can never drift
// from the row count.
func (r *PGRepository) IncrementProposals(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE listings
		SET proposals_count = proposals_count + 1,
		    updated_at = get_tx_timestamp()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("listing: increment proposals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SolvedForVendor returns the listings the vendor has successfully closed:
// those containing at least one accepted proposal attributed to the vendor.
// The result is recomputed on demand, newest listings first.
func (r *PGRepository) SolvedForVendor(ctx context.Context, vendorUserID string, limit int) ([]Listing, error) {
	const query = `
		SELECT ` + listingColumns + `
		FROM listings l
		WHERE EXISTS (
			SELECT 1 FROM proposals p
			WHERE p.listing_id = l.id
			  AND p.vendor_user_id = $1
			  AND p.status = 'accepted'
		)
		ORDER BY l.created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, vendorUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing: query solved: %w", err)
	}
	defer rows.Close()

	solved := make([]Listing, 0, 8)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("listing: scan solved: %w", err)
		}
		solved = append(solved, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing: iterate solved: %w", err)
	}
	return solved, nil
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	return l, row.Scan(
		&l.ID,
		&l.CustomerUserID,
		&l.Title,
		&l.Description,
		&l.Category,
		&l.Budget,
		&l.Timeline,
		&l.Status,
		&l.ProposalsCount,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func mapSortKey(key string) string {
	switch key {
	case "category":
		return "category"
	case "status":
		return "status"
	case "proposalsCount":
		return "proposals_count"
	case "updatedAt":
		return "updated_at"
	case "createdAt":
		fallthrough
	default:
		return "created_at"
	}
}
