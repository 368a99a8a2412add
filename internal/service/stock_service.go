package service

import (
	"context"

	"kasa-pos/internal/repository"
	"kasa-pos/internal/stock"
)

type StockOverview struct {
	Groups       []stock.Group `json:"groups"`
	ProductCount int           `json:"product_count"`
	LowCount     int           `json:"low_count"`
}

type StockService interface {
	Overview(ctx context.Context, filter string) (*StockOverview, error)
	LowStock(ctx context.Context) ([]stock.Item, error)
}

type stockService struct {
	productRepo   repository.ProductRepository
	thresholdRepo repository.ThresholdRepository
}

func NewStockService(pRepo repository.ProductRepository, tRepo repository.ThresholdRepository) StockService {
	return &stockService{productRepo: pRepo, thresholdRepo: tRepo}
}

func (s *stockService) groups(ctx context.Context, filter string) ([]stock.Group, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.thresholdRepo.AsMap(ctx)
	if err != nil {
		return nil, err
	}
	return stock.Aggregate(products, byCategory, filter), nil
}

func (s *stockService) Overview(ctx context.Context, filter string) (*StockOverview, error) {
	groups, err := s.groups(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &StockOverview{Groups: groups}
	for _, g := range groups {
		out.ProductCount += len(g.Items)
		out.LowCount += g.LowCount
	}
	if out.Groups == nil {
		out.Groups = []stock.Group{}
	}
	return out, nil
}

func (s *stockService) LowStock(ctx context.Context) ([]stock.Item, error) {
	groups, err := s.groups(ctx, "")
	if err != nil {
		return nil, err
	}
	return stock.LowStock(groups), nil
}
