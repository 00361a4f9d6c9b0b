package services

import (
	"context"
	"errors"
	"testing"

	"marketBack/internal/models"
)

func newReviewService(ad models.Ad) (*ReviewService, *stubCommentStore) {
	comments := &stubCommentStore{}
	return &ReviewService{Ads: newStubAdStore(ad), Ratings: &stubRatingStore{}, Comments: comments}, comments
}

func TestRateRules(t *testing.T) {
	svc, _ := newReviewService(ownedAd(models.StatusActive))
	ctx := context.Background()

	if _, err := svc.Rate(ctx, ownerID, adID, 5); !errors.Is(err, models.ErrSelfRating) {
		t.Fatalf("expected ErrSelfRating, got %v", err)
	}
	if _, err := svc.Rate(ctx, otherID, adID, 6); !errors.Is(err, models.ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
	if _, err := svc.Rate(ctx, otherID, adID, 4); err != nil {
		t.Fatalf("Rate: %v", err)
	}
	r, err := svc.Rate(ctx, otherID, adID, 2)
	if err != nil || r.Value != 2 {
		t.Fatalf("re-rate: %+v %v", r, err)
	}
}

func TestCommentModeration(t *testing.T) {
	svc, comments := newReviewService(ownedAd(models.StatusActive))
	ctx := context.Background()

	if _, err := svc.AddComment(ctx, otherID, adID, " x "); err == nil {
		t.Fatalf("expected a too-short comment to be rejected")
	}
	c, err := svc.AddComment(ctx, otherID, adID, "  Is it still available?  ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if c.Status != models.CommentPending || c.Body != "Is it still available?" {
		t.Fatalf("unexpected comment %+v", c)
	}

	stored := comments.comments[c.ID]
	stored.AdOwnerID = ownerID
	comments.comments[c.ID] = stored

	if _, err := svc.ModerateComment(ctx, otherID, c.ID, true); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	approved, err := svc.ModerateComment(ctx, ownerID, c.ID, true)
	if err != nil || approved.Status != models.CommentApproved {
		t.Fatalf("approve: %+v %v", approved, err)
	}
	if _, err := svc.ModerateComment(ctx, ownerID, c.ID, false); !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
