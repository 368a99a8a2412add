package service

import (
	"context"
	"errors"
	"time"

	"kasa-pos/internal/report"
	"kasa-pos/internal/repository"
)

type DashboardQuery struct {
	Range    string
	From     string
	To       string
	Category string
}

type DashboardService interface {
	Dashboard(ctx context.Context, q DashboardQuery) (*report.Dashboard, error)
	ResolveRange(q DashboardQuery) (report.Range, error)
}

type dashboardService struct {
	saleRepo repository.SaleRepository
	loc      *time.Location
	topN     int
	now      func() time.Time
}

func NewDashboardService(sRepo repository.SaleRepository, loc *time.Location, topN int) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{saleRepo: sRepo, loc: loc, topN: topN, now: time.Now}
}

func (s *dashboardService) ResolveRange(q DashboardQuery) (report.Range, error) {
	r, err := report.ResolveRange(q.Range, q.From, q.To, s.now(), s.loc)
	if err != nil {
		if errors.Is(err, report.ErrInvalidRange) {
			return report.Range{}, invalid(err, "%s", err.Error())
		}
		return report.Range{}, err
	}
	return r, nil
}

func (s *dashboardService) Dashboard(ctx context.Context, q DashboardQuery) (*report.Dashboard, error) {
	r, err := s.ResolveRange(q)
	if err != nil {
		return nil, err
	}

	sales, err := s.saleRepo.FindBetween(ctx, r.From, r.To)
	if err != nil {
		return nil, err
	}

	d := report.Build(sales, r, report.Options{
		TopN:     s.topN,
		Category: q.Category,
		Location: s.loc,
	})
	return &d, nil
}
