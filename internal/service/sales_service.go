package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"kasa-pos/internal/cart"
	"kasa-pos/internal/event"
	"kasa-pos/internal/metrics"
	"kasa-pos/internal/model"
	"kasa-pos/internal/report"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CartView is what the sales screen renders after every cart change.
type CartView struct {
	Lines     []cart.Line     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func viewOf(c *cart.Cart) *CartView {
	return &CartView{Lines: c.Lines, Total: c.Total(), ItemCount: c.ItemCount()}
}

type ScanResult struct {
	Found   bool      `json:"found"`
	Barcode string    `json:"barcode"`
	Cart    *CartView `json:"cart"`
}

// SaleQuery selects and orders the sales list. A zero Range lists everything.
type SaleQuery struct {
	Range *report.Range
	Sort  string // date, total or qty
	Order string // asc or desc
}

type SalesService interface {
	Cart(ctx context.Context, s session.Session) (*CartView, error)
	Scan(ctx context.Context, s session.Session, barcode string, qty int) (*ScanResult, error)
	AddProduct(ctx context.Context, s session.Session, barcode string) (*CartView, error)
	Increment(ctx context.Context, s session.Session, barcode string) (*CartView, error)
	Decrement(ctx context.Context, s session.Session, barcode string) (*CartView, error)
	SetQty(ctx context.Context, s session.Session, barcode string, qty int) (*CartView, error)
	RemoveLine(ctx context.Context, s session.Session, barcode string) (*CartView, error)
	ClearCart(ctx context.Context, s session.Session) error
	Checkout(ctx context.Context, s session.Session, method model.PaymentMethod) (*model.Sale, error)
	DeleteSale(ctx context.Context, s session.Session, id uuid.UUID) error
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListSales(ctx context.Context, q SaleQuery) ([]model.Sale, error)
}

type salesService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	carts       cart.Store
	db          *gorm.DB
	events      event.Publisher
	metrics     *metrics.Metrics
	log         *zap.Logger
	now         func() time.Time
}

func NewSalesService(
	pRepo repository.ProductRepository,
	sRepo repository.SaleRepository,
	carts cart.Store,
	db *gorm.DB,
	events event.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) SalesService {
	return &salesService{
		productRepo: pRepo,
		saleRepo:    sRepo,
		carts:       carts,
		db:          db,
		events:      events,
		metrics:     m,
		log:         log.Named("sales"),
		now:         time.Now,
	}
}

func (s *salesService) Cart(ctx context.Context, sess session.Session) (*CartView, error) {
	c, err := s.carts.Get(ctx, sess.Key())
	if err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

func (s *salesService) update(ctx context.Context, sess session.Session, fn func(*cart.Cart) error) (*CartView, error) {
	c, err := s.carts.Update(ctx, sess.Key(), fn)
	if err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// Scan adds qty units of barcode. An unknown barcode is not an error: the
// cart is left as it was and the result reports found=false. The product is
// resolved before the cart store is entered.
func (s *salesService) Scan(ctx context.Context, sess session.Session, barcode string, qty int) (*ScanResult, error) {
	if barcode == "" {
		return nil, invalid(nil, "barcode is required")
	}
	if qty < 1 {
		return nil, invalid(cart.ErrInvalidQty, "%s", cart.ErrInvalidQty.Error())
	}

	item, found, err := catalogLookup{ctx: ctx, repo: s.productRepo}.Lookup(barcode)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveScan(found)

	var view *CartView
	if found {
		view, err = s.update(ctx, sess, func(c *cart.Cart) error {
			return c.Add(item, qty)
		})
	} else {
		s.log.Warn("unknown barcode scanned", zap.String("barcode", barcode), zap.String("user", sess.Username))
		view, err = s.Cart(ctx, sess)
	}
	if err != nil {
		return nil, err
	}
	return &ScanResult{Found: found, Barcode: barcode, Cart: view}, nil
}

// AddProduct adds one unit picked from the product grid.
func (s *salesService) AddProduct(ctx context.Context, sess session.Session, barcode string) (*CartView, error) {
	p, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	item := itemOf(p)
	return s.update(ctx, sess, func(c *cart.Cart) error {
		c.AddManual(item)
		return nil
	})
}

func (s *salesService) Increment(ctx context.Context, sess session.Session, barcode string) (*CartView, error) {
	return s.update(ctx, sess, func(c *cart.Cart) error {
		c.Increment(barcode)
		return nil
	})
}

func (s *salesService) Decrement(ctx context.Context, sess session.Session, barcode string) (*CartView, error) {
	return s.update(ctx, sess, func(c *cart.Cart) error {
		c.Decrement(barcode)
		return nil
	})
}

func (s *salesService) SetQty(ctx context.Context, sess session.Session, barcode string, qty int) (*CartView, error) {
	view, err := s.update(ctx, sess, func(c *cart.Cart) error {
		_, err := c.SetQty(barcode, qty)
		return err
	})
	if errors.Is(err, cart.ErrInvalidQty) {
		return nil, invalid(err, "%s", err.Error())
	}
	return view, err
}

func (s *salesService) RemoveLine(ctx context.Context, sess session.Session, barcode string) (*CartView, error) {
	return s.update(ctx, sess, func(c *cart.Cart) error {
		c.Remove(barcode)
		return nil
	})
}

func (s *salesService) ClearCart(ctx context.Context, sess session.Session) error {
	return s.carts.Delete(ctx, sess.Key())
}

// Checkout commits the session cart as one sale. The cart is claimed inside
// the store first, so a second checkout of the same cart finds it empty. The
// sale row, its items and every stock decrement share a single transaction;
// if any product is gone nothing is written and the claimed lines go back
// into the cart.
func (s *salesService) Checkout(ctx context.Context, sess session.Session, method model.PaymentMethod) (*model.Sale, error) {
	if !method.Valid() {
		return nil, invalid(ErrInvalidPaymentMethod, "payment method must be cash, card or family")
	}

	claimed, err := s.claim(ctx, sess)
	if err != nil {
		return nil, err
	}

	sale := s.saleFromCart(claimed, method, sess)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.saleRepo.Create(tx, sale); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		for _, it := range sale.Items {
			n, err := s.productRepo.AdjustQty(tx, it.Barcode, -it.Qty, sess.Username)
			if err != nil {
				return fmt.Errorf("decrement %s: %w", it.Barcode, err)
			}
			if n == 0 {
				return fmt.Errorf("%w: %s", ErrProductNotFound, it.Barcode)
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveCheckoutFailure()
		s.log.Error("checkout rolled back", zap.String("user", sess.Username), zap.Error(err))
		// the request context may already be cancelled; the lines must still go back
		if _, rerr := s.carts.Update(context.WithoutCancel(ctx), sess.Key(), func(cur *cart.Cart) error {
			cur.Restore(claimed)
			return nil
		}); rerr != nil {
			s.log.Error("failed to restore cart after rollback", zap.String("user", sess.Username), zap.Error(rerr))
		}
		return nil, err
	}

	units := sale.ItemCount()
	s.metrics.ObserveCheckout(string(method), sale.Total, units)
	s.log.Info("sale committed",
		zap.String("sale_id", sale.ID.String()),
		zap.String("payment_method", string(method)),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("units", units),
		zap.String("user", sess.Username),
	)

	s.events.Publish(ctx, event.Event{
		Type:    event.SaleCreated,
		Action:  "sale_created",
		Key:     sale.ID.String(),
		Data:    sale,
		User:    actor(sess),
		Message: fmt.Sprintf("%s sold %d item(s) for %s", sess.Username, units, sale.Total.StringFixed(2)),
	})
	s.publishStock(ctx, sess, "sale_checkout", sale.Items, -1)
	return sale, nil
}

// claim empties the session cart atomically and returns what it held.
func (s *salesService) claim(ctx context.Context, sess session.Session) (*cart.Cart, error) {
	var claimed *cart.Cart
	_, err := s.carts.Update(ctx, sess.Key(), func(c *cart.Cart) error {
		if c.IsEmpty() {
			return ErrEmptyCart
		}
		claimed = c.Clone()
		c.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *salesService) saleFromCart(c *cart.Cart, method model.PaymentMethod, sess session.Session) *model.Sale {
	sale := &model.Sale{
		Total:         c.Total(),
		PaymentMethod: method,
		CashierName:   sess.Username,
		Items:         make([]model.SaleItem, 0, len(c.Lines)),
	}
	sale.ID = uuid.New()
	sale.CreatedAt = s.now().UTC()
	sale.CreatedBy = sess.Username
	if sess.UserID != uuid.Nil {
		id := sess.UserID
		sale.CashierID = &id
	}
	for _, l := range c.Lines {
		sale.Items = append(sale.Items, model.SaleItem{
			SaleID:   sale.ID,
			Barcode:  l.Barcode,
			Name:     l.Name,
			Category: l.Category,
			Price:    l.Price,
			Qty:      l.Qty,
		})
	}
	return sale
}

// DeleteSale reverses a sale: stock goes back and the sale is removed in one
// transaction. Lines whose product no longer exists are skipped.
func (s *salesService) DeleteSale(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if !sess.Can(model.PrivSaleDelete) {
		return ErrForbidden
	}

	var (
		deleted *model.Sale
		skipped []string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := s.saleRepo.FindForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return err
		}
		for _, it := range sale.Items {
			n, err := s.productRepo.AdjustQty(tx, it.Barcode, it.Qty, sess.Username)
			if err != nil {
				return fmt.Errorf("restock %s: %w", it.Barcode, err)
			}
			if n == 0 {
				skipped = append(skipped, it.Barcode)
			}
		}
		if err := s.saleRepo.Delete(tx, id); err != nil {
			return err
		}
		deleted = sale
		return nil
	})
	if err != nil {
		return err
	}

	for _, b := range skipped {
		s.log.Warn("restock skipped, product no longer exists",
			zap.String("sale_id", id.String()),
			zap.String("barcode", b),
		)
	}
	s.metrics.ObserveSaleDeleted()
	s.log.Info("sale deleted", zap.String("sale_id", id.String()), zap.String("user", sess.Username))

	s.events.Publish(ctx, event.Event{
		Type:    event.SaleDeleted,
		Action:  "sale_deleted",
		Key:     id.String(),
		Data:    deleted,
		User:    actor(sess),
		Message: fmt.Sprintf("%s deleted a sale of %s", sess.Username, deleted.Total.StringFixed(2)),
	})
	s.publishStock(ctx, sess, "sale_reversed", deleted.Items, 1)
	return nil
}

func (s *salesService) publishStock(ctx context.Context, sess session.Session, action string, items []model.SaleItem, sign int) {
	for _, it := range items {
		s.events.Publish(ctx, event.Event{
			Type:   event.StockUpdate,
			Action: action,
			Key:    it.Barcode,
			Data: map[string]interface{}{
				"barcode": it.Barcode,
				"name":    it.Name,
				"delta":   sign * it.Qty,
			},
			User: actor(sess),
		})
	}
}

func (s *salesService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *salesService) ListSales(ctx context.Context, q SaleQuery) ([]model.Sale, error) {
	less, err := saleOrder(q.Sort, q.Order)
	if err != nil {
		return nil, err
	}

	var sales []model.Sale
	if q.Range != nil {
		sales, err = s.saleRepo.FindBetween(ctx, q.Range.From, q.Range.To)
	} else {
		sales, err = s.saleRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(sales, func(i, j int) bool { return less(sales[i], sales[j]) })
	return sales, nil
}

// saleOrder builds the comparator for the sales list; the default is newest first.
func saleOrder(field, order string) (func(a, b model.Sale) bool, error) {
	var asc func(a, b model.Sale) bool
	switch field {
	case "", "date":
		asc = func(a, b model.Sale) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "total":
		asc = func(a, b model.Sale) bool { return a.Total.LessThan(b.Total) }
	case "qty":
		asc = func(a, b model.Sale) bool { return a.ItemCount() < b.ItemCount() }
	default:
		return nil, invalid(nil, "unknown sort field %q", field)
	}

	switch order {
	case "", "desc":
		return func(a, b model.Sale) bool { return asc(b, a) }, nil
	case "asc":
		return asc, nil
	default:
		return nil, invalid(nil, "unknown sort order %q", order)
	}
}
