package service

import (
	"context"
	"errors"
	"time"

	"kasa-pos/internal/chat"
	"kasa-pos/internal/metrics"
	"kasa-pos/internal/session"

	"go.uber.org/zap"
)

// Asker is the webhook client seen by the assistant service.
type Asker interface {
	Ask(ctx context.Context, question string) (*chat.Response, error)
}

type AssistantService interface {
	Ask(ctx context.Context, s session.Session, question string) (*chat.Response, error)
}

type assistantService struct {
	client  Asker
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewAssistantService(client Asker, m *metrics.Metrics, log *zap.Logger) AssistantService {
	return &assistantService{client: client, metrics: m, log: log.Named("assistant")}
}

func (s *assistantService) Ask(ctx context.Context, sess session.Session, question string) (*chat.Response, error) {
	start := time.Now()
	resp, err := s.client.Ask(ctx, question)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		s.metrics.ObserveAssistant("ok", elapsed)
		return resp, nil
	case errors.Is(err, chat.ErrEmptyQuestion):
		return nil, invalid(err, "%s", err.Error())
	case errors.Is(err, chat.ErrBadResponse):
		s.metrics.ObserveAssistant("bad_response", elapsed)
	default:
		s.metrics.ObserveAssistant("error", elapsed)
	}
	s.log.Error("assistant request failed", zap.String("user", sess.Username), zap.Error(err))
	return nil, err
}
