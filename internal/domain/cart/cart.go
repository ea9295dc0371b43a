package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// DefaultQuantity is the quantity a freshly added line starts with.
const DefaultQuantity = "1"

// ErrLastLine is returned when removing the only remaining line.
var ErrLastLine = errors.New("cart must keep at least one line")

// IndexError indicates a line index outside the cart.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("line index %d out of range [0, %d)", e.Index, e.Len)
}

// Line is one editable service selection. Both fields hold raw form
// values and are only interpreted when the cart is priced.
type Line struct {
	ServiceID string
	Quantity  string
}

// Cart is an ordered list of lines that always has at least one line.
type Cart struct {
	lines []Line
}

// New returns a cart with a single empty line.
func New() *Cart {
	c := &Cart{}
	c.Reset()
	return c
}

// Reset discards all lines and leaves a single empty one.
func (c *Cart) Reset() {
	c.lines = []Line{emptyLine()}
}

// AddLine appends an empty line.
func (c *Cart) AddLine() {
	c.lines = append(c.lines, emptyLine())
}

// RemoveLine deletes the line at i. The last remaining line is never removed.
func (c *Cart) RemoveLine(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	if len(c.lines) == 1 {
		return ErrLastLine
	}
	c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
	return nil
}

// UpdateServiceID sets the service of line i without validating it.
func (c *Cart) UpdateServiceID(i int, id string) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.lines[i].ServiceID = id
	return nil
}

// UpdateQuantity sets the raw quantity of line i without validating it.
func (c *Cart) UpdateQuantity(i int, qty string) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.lines[i].Quantity = qty
	return nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) check(i int) error {
	if i < 0 || i >= len(c.lines) {
		return &IndexError{Index: i, Len: len(c.lines)}
	}
	return nil
}

func emptyLine() Line {
	return Line{Quantity: DefaultQuantity}
}
