package listing

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// Listing is a customer-posted project open for vendor proposals.
// ProposalsCount is a stored counter maintained in the same transaction as
// every proposal insert; it must always equal the number of proposal rows.
type Listing struct {
	ID             string
	CustomerUserID string
	Title          string
	Description    string
	Category       string
	Budget         string
	Timeline       string
	Status         Status
	ProposalsCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Filters struct {
	CustomerUserID string
	Status         Status
	Category       string
	Page           int
	PageSize       int
	SortKey        string
	SortOrder      string
}
