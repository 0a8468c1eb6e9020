package service

import (
	"context"

	"studysync_backend/internal/event"
	"studysync_backend/internal/model"
	"studysync_backend/internal/repository"
	"studysync_backend/internal/util"
	"studysync_backend/pkg/api"
	"studysync_backend/pkg/logger"

	"go.uber.org/zap"
)

type FeedbackService struct {
	Repo      *repository.FeedbackRepository
	Publisher event.Publisher
}

func NewFeedbackService(repo *repository.FeedbackRepository, publisher event.Publisher) *FeedbackService {
	return &FeedbackService{Repo: repo, Publisher: publisher}
}

func toAPIFeedback(f *model.BetaFeedback) api.Feedback {
	return api.Feedback{
		ID:        f.ID,
		UserID:    f.UserID,
		Category:  string(f.Category),
		Rating:    f.Rating,
		Message:   f.Message,
		Page:      f.Page,
		Status:    string(f.Status),
		CreatedAt: f.CreatedAt,
	}
}

func (s *FeedbackService) Create(ctx context.Context, userID string, in api.FeedbackInput) (*api.Feedback, error) {
	fb := &model.BetaFeedback{
		UserID:   userID,
		Category: model.FeedbackCategory(in.Category),
		Rating:   in.Rating,
		Message:  in.Message,
		Page:     in.Page,
		Status:   model.FeedbackNew,
	}
	if err := s.Repo.Create(fb); err != nil {
		return nil, err
	}

	if s.Publisher != nil {
		if err := s.Publisher.PublishFeedbackCreated(ctx, event.FeedbackCreated{
			FeedbackID: fb.ID,
			UserID:     userID,
			Category:   in.Category,
			Rating:     in.Rating,
		}); err != nil {
			logger.Log.Warn("failed to publish feedback created", zap.String("feedbackId", fb.ID), zap.Error(err))
		}
	}
	out := toAPIFeedback(fb)
	return &out, nil
}

// List userID 为空表示管理端查看全部
func (s *FeedbackService) List(userID string, page, limit int) (*api.FeedbackList, error) {
	items, total, err := s.Repo.List(userID, page, limit)
	if err != nil {
		return nil, err
	}
	out := &api.FeedbackList{
		Feedback:   make([]api.Feedback, 0, len(items)),
		Pagination: api.Pagination(util.NewPagination(page, limit, total)),
	}
	for i := range items {
		out.Feedback = append(out.Feedback, toAPIFeedback(&items[i]))
	}
	return out, nil
}
