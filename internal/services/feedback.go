package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sporture-backend/internal/models"
	"sporture-backend/internal/repository"

	"github.com/google/uuid"
)

// FeedbackRepository is the feedback persistence used by the services
type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	List(ctx context.Context) ([]*models.Feedback, error)
	Delete(ctx context.Context, id string) error
}

// FeedbackService handles visitor feedback
type FeedbackService struct {
	feedbackRepo FeedbackRepository
	now          func() time.Time
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(feedbackRepo FeedbackRepository) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: feedbackRepo,
		now:          time.Now,
	}
}

// FeedbackInput represents a feedback submission
type FeedbackInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// List returns all feedback, newest first
func (s *FeedbackService) List(ctx context.Context) ([]*models.Feedback, error) {
	items, err := s.feedbackRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, nil
}

// Create stores a feedback entry
func (s *FeedbackService) Create(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	comment := strings.TrimSpace(in.Comment)
	if name == "" || email == "" || comment == "" || in.Rating == 0 {
		return nil, ErrMissingFields
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}

	fb := &models.Feedback{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Rating:    in.Rating,
		Comment:   comment,
		CreatedAt: s.now(),
	}

	if err := s.feedbackRepo.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}
	return fb, nil
}

// Delete removes a feedback entry
func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	id, ok := models.NormalizeID(id)
	if !ok {
		return ErrInvalidFeedbackID
	}

	if err := s.feedbackRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFeedbackNotFound
		}
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	return nil
}
