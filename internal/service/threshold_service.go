package service

import (
	"context"
	"fmt"
	"strings"

	"kasa-pos/internal/event"
	"kasa-pos/internal/model"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/session"

	"go.uber.org/zap"
)

type ThresholdService interface {
	Thresholds(ctx context.Context) ([]model.CategoryThreshold, error)
	SetCategoryThreshold(ctx context.Context, s session.Session, category string, threshold int) (*model.CategoryThreshold, error)
	DeleteCategoryThreshold(ctx context.Context, s session.Session, category string) error
}

type thresholdService struct {
	repo   repository.ThresholdRepository
	events event.Publisher
	log    *zap.Logger
}

func NewThresholdService(repo repository.ThresholdRepository, events event.Publisher, log *zap.Logger) ThresholdService {
	return &thresholdService{repo: repo, events: events, log: log.Named("threshold")}
}

func (s *thresholdService) Thresholds(ctx context.Context) ([]model.CategoryThreshold, error) {
	return s.repo.FindAll(ctx)
}

func (s *thresholdService) SetCategoryThreshold(ctx context.Context, sess session.Session, category string, threshold int) (*model.CategoryThreshold, error) {
	t := &model.CategoryThreshold{
		Category:  strings.TrimSpace(category),
		Threshold: threshold,
		UpdatedBy: sess.Username,
	}
	if err := validate(t); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info("category threshold set",
		zap.String("category", t.Category),
		zap.Int("threshold", t.Threshold),
		zap.String("user", sess.Username),
	)
	s.events.Publish(ctx, event.Event{
		Type:    event.ThresholdUpdate,
		Action:  "threshold_set",
		Key:     t.Category,
		Data:    t,
		User:    actor(sess),
		Message: fmt.Sprintf("%s set the %s threshold to %d", sess.Username, t.Category, t.Threshold),
	})
	return t, nil
}

func (s *thresholdService) DeleteCategoryThreshold(ctx context.Context, sess session.Session, category string) error {
	n, err := s.repo.Delete(ctx, category)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrThresholdNotFound
	}

	s.log.Info("category threshold removed", zap.String("category", category), zap.String("user", sess.Username))
	s.events.Publish(ctx, event.Event{
		Type:    event.ThresholdUpdate,
		Action:  "threshold_deleted",
		Key:     category,
		User:    actor(sess),
		Message: fmt.Sprintf("%s removed the %s threshold", sess.Username, category),
	})
	return nil
}
