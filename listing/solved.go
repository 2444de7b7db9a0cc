package listing

import "context"

// SolvedReader is the slice of Repository the solved-listings view needs.
type SolvedReader interface {
	SolvedForVendor(ctx context.Context, vendorUserID string, limit int) ([]Listing, error)
}

// SolvedService answers "which listings has this vendor successfully
// closed". It is a read-time derived view over persisted listings, never a
// maintained index. The lookup key is the input identity verbatim; any demo
// identity remapping happens at the API boundary, not here.
type SolvedService struct {
	repo  SolvedReader
	limit int
}

const defaultSolvedLimit = 50

func NewSolvedService(repo SolvedReader, limit int) *SolvedService {
	if limit <= 0 {
		limit = defaultSolvedLimit
	}
	return &SolvedService{repo: repo, limit: limit}
}

// SolvedListingsFor returns the listings containing at least one accepted
// proposal attributed to the vendor, newest first, capped at the configured
// limit.
func (s *SolvedService) SolvedListingsFor(ctx context.Context, vendorUserID string) ([]Listing, error) {
	return s.repo.SolvedForVendor(ctx, vendorUserID, s.limit)
}
