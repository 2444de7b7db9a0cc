package customer

import (
	"context"
	"errors"
	"testing"
)

func fullProfile() Institution {
	return Institution{
		UserID:            "c1",
		InstitutionName:   "Mercy General",
		InstitutionType:   "hospital",
		State:             "OH",
		Country:           "US",
		SelectedSolutions: []string{"telehealth"},
		AdditionalNotes:   "Priority: High",
		ContactName:       "Dr. Lee",
		ContactTitle:      "CIO",
		ContactEmail:      "lee@mercy.example",
		ContactPhone:      "555-0100",
	}
}

func TestCompletionScore_Empty(t *testing.T) {
	if got := CompletionScore(Institution{}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestCompletionScore_Full(t *testing.T) {
	if got := CompletionScore(fullProfile()); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestCompletionScore_SingleField(t *testing.T) {
	p := Institution{InstitutionName: "Mercy General"}
	if got := CompletionScore(p); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

func TestCompletionScore_NotesNeedPriorityPrefix(t *testing.T) {
	p := fullProfile()
	p.AdditionalNotes = "We would like to start soon"
	if got := CompletionScore(p); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}

	p.AdditionalNotes = "Priority: interoperability first"
	if got := CompletionScore(p); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestCompletionScore_EmptySolutionsDoNotCount(t *testing.T) {
	p := fullProfile()
	p.SelectedSolutions = nil
	if got := CompletionScore(p); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
}

type fakeRepo struct {
	profile Institution
	getErr  error
}

func (f *fakeRepo) Upsert(_ context.Context, p Institution) (Institution, error) {
	f.profile = p
	return p, nil
}

func (f *fakeRepo) GetByID(_ context.Context, _ string) (Institution, error) {
	return f.profile, f.getErr
}

func TestCompletion_MissingProfileScoresZero(t *testing.T) {
	svc := NewService(&fakeRepo{getErr: ErrNotFound})

	score, err := svc.Completion(context.Background(), "c1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if score != 0 {
		t.Fatalf("expected 0 for missing profile, got %d", score)
	}
}

func TestCompletion_StorageErrorSurfaces(t *testing.T) {
	svc := NewService(&fakeRepo{getErr: errors.New("connection reset")})

	if _, err := svc.Completion(context.Background(), "c1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCompletion_SavedProfileScores(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)

	if _, err := svc.Save(context.Background(), fullProfile()); err != nil {
		t.Fatalf("save: %v", err)
	}

	score, err := svc.Completion(context.Background(), "c1")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if score != 100 {
		t.Fatalf("expected 100, got %d", score)
	}
}
