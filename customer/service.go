package customer

import (
	"context"
	"errors"
)

// Service exposes institution profile operations to the API layer.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Save(ctx context.Context, p Institution) (Institution, error) {
	return s.repo.Upsert(ctx, p)
}

func (s *Service) Get(ctx context.Context, userID string) (Institution, error) {
	return s.repo.GetByID(ctx, userID)
}

// Completion returns the onboarding completion percentage for the user. A
// missing profile scores 0 rather than erroring; the onboarding page asks
// before anything is saved.
func (s *Service) Completion(ctx context.Context, userID string) (int, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return CompletionScore(p), nil
}
