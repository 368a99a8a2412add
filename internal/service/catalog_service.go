package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"kasa-pos/internal/cart"
	"kasa-pos/internal/event"
	"kasa-pos/internal/model"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/session"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, s session.Session, req *model.Product) error
	UpdateProduct(ctx context.Context, s session.Session, barcode string, req *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, s session.Session, barcode string) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Grid(ctx context.Context, category string) ([]model.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	events      event.Publisher
	log         *zap.Logger
}

func NewCatalogService(pRepo repository.ProductRepository, db *gorm.DB, events event.Publisher, log *zap.Logger) CatalogService {
	return &catalogService{
		productRepo: pRepo,
		db:          db,
		events:      events,
		log:         log.Named("catalog"),
	}
}

func normalizeProduct(p *model.Product) {
	p.Barcode = strings.TrimSpace(p.Barcode)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
}

func (s *catalogService) CreateProduct(ctx context.Context, sess session.Session, req *model.Product) error {
	normalizeProduct(req)
	if err := validate(req); err != nil {
		return err
	}

	existing, err := s.productRepo.FindByBarcode(ctx, req.Barcode)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup barcode: %w", err)
	}
	if existing != nil {
		return invalid(ErrDuplicateBarcode, "barcode %q already exists", req.Barcode)
	}

	// id and audit fields are assigned here, never taken from the client
	req.BaseModel = model.BaseModel{CreatedBy: sess.Username, UpdatedBy: sess.Username}
	if err := s.productRepo.Create(ctx, req); err != nil {
		return err
	}

	s.log.Info("product created", zap.String("barcode", req.Barcode), zap.String("user", sess.Username))
	s.publish(ctx, sess, "product_created", req, fmt.Sprintf("%s created product '%s'", sess.Username, req.Name))
	return nil
}

// UpdateProduct replaces the editable fields of the product identified by
// barcode. The row is locked for the duration of the change.
func (s *catalogService) UpdateProduct(ctx context.Context, sess session.Session, barcode string, req *model.Product) (*model.Product, error) {
	normalizeProduct(req)
	if err := validate(req); err != nil {
		return nil, err
	}

	var updated model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "barcode = ?", barcode).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		if req.Barcode != existing.Barcode {
			var clash int64
			if err := tx.Model(&model.Product{}).Where("barcode = ?", req.Barcode).Count(&clash).Error; err != nil {
				return err
			}
			if clash > 0 {
				return invalid(ErrDuplicateBarcode, "barcode %q already exists", req.Barcode)
			}
		}

		existing.Barcode = req.Barcode
		existing.Name = req.Name
		existing.Price = req.Price
		existing.Qty = req.Qty
		existing.Category = req.Category
		existing.Threshold = req.Threshold
		existing.UpdatedBy = sess.Username

		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product updated", zap.String("barcode", barcode), zap.String("user", sess.Username))
	s.publish(ctx, sess, "product_updated", &updated, fmt.Sprintf("%s updated product '%s'", sess.Username, updated.Name))
	return &updated, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, sess session.Session, barcode string) error {
	product, err := s.GetByBarcode(ctx, barcode)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		return err
	}

	s.log.Info("product deleted", zap.String("barcode", barcode), zap.String("user", sess.Username))
	s.publish(ctx, sess, "product_deleted", product, fmt.Sprintf("%s deleted product '%s'", sess.Username, product.Name))
	return nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *catalogService) GetByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	p, err := s.productRepo.FindByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Categories lists the default categories followed by any others in use.
func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	used, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(model.DefaultCategories))
	out := make([]string, 0, len(model.DefaultCategories)+len(used))
	for _, c := range model.DefaultCategories {
		seen[c] = true
		out = append(out, c)
	}
	var extra []string
	for _, c := range used {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		extra = append(extra, c)
	}
	sort.Strings(extra)
	return append(out, extra...), nil
}

func (s *catalogService) Grid(ctx context.Context, category string) ([]model.Product, error) {
	if strings.TrimSpace(category) == "" {
		return nil, invalid(nil, "category is required")
	}
	return s.productRepo.FindByCategory(ctx, category)
}

func (s *catalogService) publish(ctx context.Context, sess session.Session, action string, p *model.Product, msg string) {
	s.events.Publish(ctx, event.Event{
		Type:   event.StockUpdate,
		Action: action,
		Key:    p.Barcode,
		Data: map[string]interface{}{
			"barcode":  p.Barcode,
			"name":     p.Name,
			"qty":      p.Qty,
			"price":    p.Price,
			"category": p.Category,
		},
		User:    actor(sess),
		Message: msg,
	})
}

// catalogLookup adapts the product table to cart.Catalog for one request.
type catalogLookup struct {
	ctx  context.Context
	repo repository.ProductRepository
}

func (c catalogLookup) Lookup(barcode string) (cart.Item, bool, error) {
	p, err := c.repo.FindByBarcode(c.ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.Item{}, false, nil
		}
		return cart.Item{}, false, err
	}
	return itemOf(p), true, nil
}

func itemOf(p *model.Product) cart.Item {
	return cart.Item{
		Barcode:  p.Barcode,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
	}
}
