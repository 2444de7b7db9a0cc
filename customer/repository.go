package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the institution profile does not exist.
var ErrNotFound = errors.New("customer: not found")

type Repository interface {
	Upsert(ctx context.Context, p Institution) (Institution, error)
	GetByID(ctx context.Context, userID string) (Institution, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const institutionColumns = `user_id, institution_name, institution_type, state, country, selected_solutions, additional_notes, contact_name, contact_title, contact_email, contact_phone, created_at, updated_at`

// Upsert writes the whole profile. Onboarding saves the form repeatedly as
// the customer fills it in, so partial profiles are the common case.
func (r *PGRepository) Upsert(ctx context.Context, p Institution) (Institution, error) {
	const query = `
		INSERT INTO institutions (user_id, institution_name, institution_type, state, country, selected_solutions, additional_notes, contact_name, contact_title, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			institution_name   = EXCLUDED.institution_name,
			institution_type   = EXCLUDED.institution_type,
			state              = EXCLUDED.state,
			country            = EXCLUDED.country,
			selected_solutions = EXCLUDED.selected_solutions,
			additional_notes   = EXCLUDED.additional_notes,
			contact_name       = EXCLUDED.contact_name,
			contact_title      = EXCLUDED.contact_title,
			contact_email      = EXCLUDED.contact_email,
			contact_phone      = EXCLUDED.contact_phone,
			updated_at         = get_tx_timestamp()
		RETURNING ` + institutionColumns + `
	`

	saved, err := scanInstitution(r.pool.QueryRow(ctx, query,
		p.UserID,
		p.InstitutionName,
		p.InstitutionType,
		p.State,
		p.Country,
		p.SelectedSolutions,
		p.AdditionalNotes,
		p.ContactName,
		p.ContactTitle,
		p.ContactEmail,
		p.ContactPhone,
	))
	if err != nil {
		return Institution{}, fmt.Errorf("customer: upsert profile: %w", err)
	}
	return saved, nil
}

func (r *PGRepository) GetByID(ctx context.Context, userID string) (Institution, error) {
	const query = `SELECT ` + institutionColumns + ` FROM institutions WHERE user_id = $1`

	p, err := scanInstitution(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Institution{}, ErrNotFound
		}
		return Institution{}, fmt.Errorf("customer: get profile: %w", err)
	}
	return p, nil
}

func scanInstitution(row pgx.Row) (Institution, error) {
	var p Institution
	return p, row.Scan(
		&p.UserID,
		&p.InstitutionName,
		&p.InstitutionType,
		&p.State,
		&p.Country,
		&p.SelectedSolutions,
		&p.AdditionalNotes,
		&p.ContactName,
		&p.ContactTitle,
		&p.ContactEmail,
		&p.ContactPhone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
