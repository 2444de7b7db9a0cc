package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medmarket/notify"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrCloseForbidden signals the caller does not own the listing.
	ErrCloseForbidden = errors.New("listing: close forbidden")
	// ErrCloseInvalidState signals the listing is not in a closable state.
	ErrCloseInvalidState = errors.New("listing: close invalid state")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service owns listing creation and the external status triggers
// (close/cancel). Proposal handling lives in ProposalService.
type Service struct {
	pool        TxBeginner
	repo        Repository
	outbox      notify.Writer
	idGenerator func() string
	now         func() time.Time
}

type CreateParams struct {
	CustomerUserID string
	Title          string
	Description    string
	Category       string
	Budget         string
	Timeline       string
}

type ListResult struct {
	Items []Listing
	Total int
}

func NewService(pool TxBeginner, repo Repository, outbox notify.Writer) *Service {
	return &Service{
		pool:        pool,
		repo:        repo,
		outbox:      outbox,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Listing, error) {
	if params.CustomerUserID == "" {
		return Listing{}, fmt.Errorf("listing: missing customer user id")
	}
	if params.Title == "" {
		return Listing{}, fmt.Errorf("listing: title required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	l := Listing{
		ID:             s.idGenerator(),
		CustomerUserID: params.CustomerUserID,
		Title:          params.Title,
		Description:    params.Description,
		Category:       params.Category,
		Budget:         params.Budget,
		Timeline:       params.Timeline,
		Status:         StatusActive,
	}

	created, err := s.repo.Create(ctx, tx, l)
	if err != nil {
		return Listing{}, fmt.Errorf("listing: create: %w", err)
	}

	if s.outbox != nil {
		payload := map[string]any{
			"listing_id": created.ID,
			"customer":   created.CustomerUserID,
			"category":   created.Category,
		}
		if err := s.outbox.Enqueue(ctx, tx, notify.TopicListingCreated, payload); err != nil {
			return Listing{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Listing{}, fmt.Errorf("listing: commit tx: %w", err)
	}

	return created, nil
}

func (s *Service) List(ctx context.Context, filters Filters) (ListResult, error) {
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Listing, error) {
	return s.repo.GetByID(ctx, id)
}

type StatusChangeParams struct {
	ListingID string
	ActorID   string
	ActorRole string
}

// Close marks an active listing closed. Only the owning customer or an
// admin may trigger it.
func (s *Service) Close(ctx context.Context, params StatusChangeParams) (Listing, error) {
	return s.changeStatus(ctx, params, StatusClosed, notify.TopicListingClosed)
}

// Cancel marks an active listing cancelled under the same ownership rules.
func (s *Service) Cancel(ctx context.Context, params StatusChangeParams) (Listing, error) {
	return s.changeStatus(ctx, params, StatusCancelled, notify.TopicListingCancelled)
}

func (s *Service) changeStatus(ctx context.Context, params StatusChangeParams, next Status, topic string) (Listing, error) {
	if params.ListingID == "" {
		return Listing{}, fmt.Errorf("listing: missing listing id")
	}
	if params.ActorID == "" {
		return Listing{}, fmt.Errorf("listing: missing actor id")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("listing: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	l, err := s.repo.GetForUpdate(ctx, tx, params.ListingID)
	if err != nil {
		return Listing{}, err
	}

	if params.ActorRole != "admin" && l.CustomerUserID != params.ActorID {
		return Listing{}, ErrCloseForbidden
	}
	if l.Status != StatusActive {
		return Listing{}, ErrCloseInvalidState
	}

	updated, err := s.repo.UpdateStatus(ctx, tx, params.ListingID, next)
	if err != nil {
		return Listing{}, err
	}

	if s.outbox != nil {
		payload := map[string]any{
			"listing_id": updated.ID,
			"status":     updated.Status,
		}
		if err := s.outbox.Enqueue(ctx, tx, topic, payload); err != nil {
			return Listing{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Listing{}, fmt.Errorf("listing: commit status change: %w", err)
	}

	return updated, nil
}
