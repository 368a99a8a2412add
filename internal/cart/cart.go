// Package cart implements the in-progress sale: a barcode-keyed list of lines
// that is mutated by scans and manual picks and later committed by checkout.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidQty = errors.New("quantity must be at least 1")

// Item is the catalog view a cart needs to create a line.
type Item struct {
	Barcode  string
	Name     string
	Price    decimal.Decimal
	Category string
}

// Catalog resolves barcodes while scanning. A miss returns ok=false.
type Catalog interface {
	Lookup(barcode string) (item Item, ok bool, err error)
}

type Line struct {
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Qty      int             `json:"qty"`
	Category string          `json:"category"`
}

// Subtotal is price×qty for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart keeps lines in the order they were first added. It is not safe for
// concurrent use; Store implementations serialise access.
type Cart struct {
	Lines []Line `json:"lines"`
}

func New() *Cart {
	return &Cart{Lines: []Line{}}
}

// AddScan looks the barcode up and merges qty into the cart.
// Unknown barcodes leave the cart untouched and report found=false.
func (c *Cart) AddScan(catalog Catalog, barcode string, qty int) (found bool, err error) {
	if qty < 1 {
		return false, ErrInvalidQty
	}
	item, ok, err := catalog.Lookup(barcode)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, c.Add(item, qty)
}

// Add merges qty units of an already resolved item.
func (c *Cart) Add(item Item, qty int) error {
	if qty < 1 {
		return ErrInvalidQty
	}
	c.upsert(item, qty)
	return nil
}

// AddManual adds one unit of a product picked from the grid.
func (c *Cart) AddManual(item Item) {
	c.upsert(item, 1)
}

// Restore puts the lines of prev back in front of the current ones. Lines
// present in both are merged with their quantities summed.
func (c *Cart) Restore(prev *Cart) {
	merged := prev.Clone()
	for _, l := range c.Lines {
		merged.upsert(Item{Barcode: l.Barcode, Name: l.Name, Price: l.Price, Category: l.Category}, l.Qty)
	}
	c.Lines = merged.Lines
}

func (c *Cart) upsert(item Item, qty int) {
	if i := c.index(item.Barcode); i >= 0 {
		c.Lines[i].Qty += qty
		return
	}
	c.Lines = append(c.Lines, Line{
		Barcode:  item.Barcode,
		Name:     item.Name,
		Price:    item.Price,
		Qty:      qty,
		Category: item.Category,
	})
}

// Increment adds one unit to an existing line.
func (c *Cart) Increment(barcode string) bool {
	i := c.index(barcode)
	if i < 0 {
		return false
	}
	c.Lines[i].Qty++
	return true
}

// Decrement removes one unit but never drops a line below 1; use Remove.
func (c *Cart) Decrement(barcode string) bool {
	i := c.index(barcode)
	if i < 0 {
		return false
	}
	if c.Lines[i].Qty > 1 {
		c.Lines[i].Qty--
	}
	return true
}

// SetQty overwrites a line quantity, as typed on the quantity pad.
func (c *Cart) SetQty(barcode string, qty int) (bool, error) {
	if qty < 1 {
		return false, ErrInvalidQty
	}
	i := c.index(barcode)
	if i < 0 {
		return false, nil
	}
	c.Lines[i].Qty = qty
	return true, nil
}

func (c *Cart) Remove(barcode string) bool {
	i := c.index(barcode)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Lines = []Line{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Total is Σ price×qty over the current lines.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the number of units in the cart.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Qty
	}
	return n
}

func (c *Cart) Line(barcode string) (Line, bool) {
	if i := c.index(barcode); i >= 0 {
		return c.Lines[i], true
	}
	return Line{}, false
}

// Clone returns a deep copy safe to hand out of a store.
func (c *Cart) Clone() *Cart {
	out := &Cart{Lines: make([]Line, len(c.Lines))}
	copy(out.Lines, c.Lines)
	return out
}

func (c *Cart) index(barcode string) int {
	for i := range c.Lines {
		if c.Lines[i].Barcode == barcode {
			return i
		}
	}
	return -1
}
