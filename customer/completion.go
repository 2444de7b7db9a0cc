package customer

import (
	"math"
	"strings"
)

// notesPriorityPrefix is the literal marker the onboarding flow writes when
// the institution has picked a priority; free-form notes without it do not
// count toward completion.
const notesPriorityPrefix = "Priority: "

// CompletionScore returns the percentage of the onboarding checklist the
// profile satisfies. The checklist has 10 fields in four sections:
// institution details (4), solution categories (1), priority (1), and
// contact info (4). The function is pure and total; a zero-value profile
// scores 0, a fully populated one 100.
func CompletionScore(p Institution) int {
	checks := []bool{
		p.InstitutionName != "",
		p.InstitutionType != "",
		p.State != "",
		p.Country != "",
		len(p.SelectedSolutions) > 0,
		strings.HasPrefix(p.AdditionalNotes, notesPriorityPrefix),
		p.ContactName != "",
		p.ContactTitle != "",
		p.ContactEmail != "",
		p.ContactPhone != "",
	}

	completed := 0
	for _, ok := range checks {
		if ok {
			completed++
		}
	}

	return int(math.Round(float64(completed) / float64(len(checks)) * 100))
}
