package customer

import "time"

// Institution is a customer organization's onboarding profile. The
// completion scorer reads it; listings reference the owning user directly.
type Institution struct {
	UserID            string
	InstitutionName   string
	InstitutionType   string
	State             string
	Country           string
	SelectedSolutions []string
	AdditionalNotes   string
	ContactName       string
	ContactTitle      string
	ContactEmail      string
	ContactPhone      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
