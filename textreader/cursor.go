package textreader

import (
	"fmt"
	"math/big"

	"github.com/shibukawa/ionmacro/ion"
	"github.com/shopspring/decimal"
)

type level struct {
	values []*Value
	index  int
	// container is the value stepped into, nil at top level
	container *Value
}

// Cursor walks a parsed value tree one value at a time.
type Cursor struct {
	levels []level
	err    error
}

// NewCursor creates a cursor before the first of values.
func NewCursor(values []*Value) *Cursor {
	return &Cursor{levels: []level{{values: values, index: -1}}}
}

// NewTextCursor parses src and returns a cursor over its top-level values.
func NewTextCursor(src string) (*Cursor, error) {
	values, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return NewCursor(values), nil
}

func (c *Cursor) top() *level {
	return &c.levels[len(c.levels)-1]
}

// Current returns the value under the cursor, or nil.
func (c *Cursor) Current() *Value {
	l := c.top()
	if l.index < 0 || l.index >= len(l.values) {
		return nil
	}
	return l.values[l.index]
}

func (c *Cursor) Next() bool {
	l := c.top()
	if l.index < len(l.values) {
		l.index++
	}
	return l.index < len(l.values)
}

func (c *Cursor) Err() error {
	return c.err
}

// Depth is the number of containers stepped into.
func (c *Cursor) Depth() int {
	return len(c.levels) - 1
}

func (c *Cursor) Type() ion.Type {
	if v := c.Current(); v != nil {
		return v.Type
	}
	return ion.Null
}

func (c *Cursor) IsNull() bool {
	if v := c.Current(); v != nil {
		return v.Null
	}
	return false
}

func (c *Cursor) Annotations() []ion.SymbolToken {
	if v := c.Current(); v != nil {
		return v.Annotations
	}
	return nil
}

func (c *Cursor) FieldName() (ion.SymbolToken, bool) {
	if v := c.Current(); v != nil && v.HasFieldName {
		return v.FieldName, true
	}
	return ion.SymbolToken{}, false
}

func (c *Cursor) Position() string {
	if v := c.Current(); v != nil {
		return v.Position.String()
	}
	if container := c.top().container; container != nil {
		return "end of container at " + container.Position.String()
	}
	return "end of input"
}

func (c *Cursor) value(t ion.Type) (*Value, error) {
	v := c.Current()
	if v == nil {
		return nil, ErrNotOnValue
	}
	if v.Type != t || v.Null {
		return nil, fmt.Errorf("%w: expected %s, found %s at %s", ErrTypeMismatch, t, v.Type, v.Position)
	}
	return v, nil
}

func (c *Cursor) BoolValue() (bool, error) {
	v, err := c.value(ion.Bool)
	if err != nil {
		return false, err
	}
	return v.Bool, nil
}

func (c *Cursor) IntValue() (*big.Int, error) {
	v, err := c.value(ion.Int)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v.Int), nil
}

func (c *Cursor) FloatValue() (float64, error) {
	v, err := c.value(ion.Float)
	if err != nil {
		return 0, err
	}
	return v.Float, nil
}

func (c *Cursor) DecimalValue() (decimal.Decimal, error) {
	v, err := c.value(ion.Decimal)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.Decimal, nil
}

func (c *Cursor) TimestampValue() (ion.Timestamp, error) {
	v, err := c.value(ion.TimestampType)
	if err != nil {
		return ion.Timestamp{}, err
	}
	return v.Timestamp, nil
}

func (c *Cursor) SymbolValue() (ion.SymbolToken, error) {
	v, err := c.value(ion.Symbol)
	if err != nil {
		return ion.SymbolToken{}, err
	}
	return v.Symbol, nil
}

func (c *Cursor) StringValue() (string, error) {
	v, err := c.value(ion.String)
	if err != nil {
		return "", err
	}
	return v.String, nil
}

// LobValue returns the bytes of a blob or clob.
func (c *Cursor) LobValue() ([]byte, error) {
	v := c.Current()
	if v == nil {
		return nil, ErrNotOnValue
	}
	if !v.Type.IsLob() || v.Null {
		return nil, fmt.Errorf("%w: expected a lob, found %s at %s", ErrTypeMismatch, v.Type, v.Position)
	}
	return v.Lob, nil
}

func (c *Cursor) StepIn() error {
	v := c.Current()
	if v == nil || !v.Type.IsContainer() || v.Null {
		return fmt.Errorf("%w at %s", ErrNotOnContainer, c.Position())
	}
	c.levels = append(c.levels, level{values: v.Children, index: -1, container: v})
	return nil
}

// StepOut returns to the container's level, positioned on the container.
func (c *Cursor) StepOut() error {
	if len(c.levels) == 1 {
		return ErrAtTopLevel
	}
	c.levels = c.levels[:len(c.levels)-1]
	return nil
}
