package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"marketBack/internal/models"
)

// ReviewService handles star ratings and moderated comments on ads.
type ReviewService struct {
	Ads      AdStore
	Ratings  RatingStore
	Comments CommentStore
	Logger   *zap.Logger
}

func (s *ReviewService) activeAd(ctx context.Context, adID string) (models.Ad, error) {
	ad, err := s.Ads.GetAdByID(ctx, adID)
	if err != nil {
		return models.Ad{}, err
	}
	if ad.Status != models.StatusActive {
		return models.Ad{}, models.ErrAdNotActive
	}
	return ad, nil
}

// Rate stores the author's rating, replacing an earlier one.
func (s *ReviewService) Rate(ctx context.Context, authorID, adID string, value int) (models.Rating, error) {
	if value < models.MinRating || value > models.MaxRating {
		return models.Rating{}, models.ErrInvalidRating
	}
	ad, err := s.activeAd(ctx, adID)
	if err != nil {
		return models.Rating{}, err
	}
	if ad.IsOwnedBy(authorID) {
		return models.Rating{}, models.ErrSelfRating
	}
	return s.Ratings.Upsert(ctx, models.Rating{AdID: ad.ID, AuthorID: authorID, Value: value})
}

// AddComment stores a comment for moderation by the ad owner.
func (s *ReviewService) AddComment(ctx context.Context, authorID, adID, body string) (models.Comment, error) {
	form := models.CommentForm{Body: strings.TrimSpace(body)}
	if errs := models.Validate(&form); !errs.Valid() {
		return models.Comment{}, &models.ValidationError{Fields: errs}
	}
	ad, err := s.activeAd(ctx, adID)
	if err != nil {
		return models.Comment{}, err
	}
	return s.Comments.Create(ctx, models.Comment{
		AdID:     ad.ID,
		AuthorID: authorID,
		Body:     form.Body,
		Status:   models.CommentPending,
	})
}

// ModerateComment approves or rejects a pending comment on one of the owner's ads.
func (s *ReviewService) ModerateComment(ctx context.Context, ownerID, commentID string, approve bool) (models.Comment, error) {
	c, err := s.Comments.Get(ctx, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if c.AdOwnerID != ownerID {
		return models.Comment{}, models.ErrForbidden
	}
	to := models.CommentRejected
	if approve {
		to = models.CommentApproved
	}
	if !c.Status.CanTransition(to) {
		return models.Comment{}, models.ErrInvalidTransition
	}
	if err := s.Comments.UpdateStatus(ctx, c.ID, c.Status, to); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) && s.Logger != nil {
			s.Logger.Debug("comment moderated concurrently", zap.String("comment_id", c.ID))
		}
		return models.Comment{}, err
	}
	c.Status = to
	return c, nil
}

func (s *ReviewService) PendingForOwner(ctx context.Context, ownerID string) ([]models.Comment, error) {
	return s.Comments.PendingForOwner(ctx, ownerID)
}
