package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Outbox topics produced by the domain services. Delivery to users is a
// downstream concern; this package only guarantees the transactional write.
const (
	TopicListingCreated    = "listing.created"
	TopicListingClosed     = "listing.closed"
	TopicListingCancelled  = "listing.cancelled"
	TopicProposalSubmitted = "proposal.submitted"
	TopicProposalAccepted  = "proposal.accepted"
	TopicProposalRejected  = "proposal.rejected"
	TopicVendorVerified    = "vendor.verified"
)

// Writer enqueues notification events inside the caller's transaction so the
// event and the state change it announces commit or roll back together.
type Writer interface {
	Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error
}

// OutboxWriter is the Postgres-backed Writer used in production.
type OutboxWriter struct{}

func NewOutboxWriter() *OutboxWriter {
	return &OutboxWriter{}
}

func (w *OutboxWriter) Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	if topic == "" {
		return fmt.Errorf("notify: empty topic")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO outbox (topic, payload) VALUES ($1, $2::jsonb)`, topic, body); err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", topic, err)
	}
	return nil
}
