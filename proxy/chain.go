package proxy

import "fmt"

// Chain carries the first error of a fluent call chain. Once an error is
// recorded every further call is skipped and the error surfaces at the
// chain's terminal call.
type Chain struct {
	err error
}

func NewChain() *Chain {
	return &Chain{}
}

// Call invokes a method whose result is a slot or nothing.
func (c *Chain) Call(self *Proxy, id string, args ...any) {
	if c.err != nil {
		return
	}

	if _, err := c.invoke(self, id, args); err != nil {
		c.err = err
	}
}

// Value invokes a method whose result is returned to the caller.
func (c *Chain) Value(self *Proxy, id string, args ...any) (any, error) {
	if c.err != nil {
		return nil, c.err
	}

	value, err := c.invoke(self, id, args)
	if err != nil {
		c.err = err
		return nil, err
	}

	return value, nil
}

func (c *Chain) Err() error {
	return c.err
}

func (c *Chain) invoke(self *Proxy, id string, args []any) (any, error) {
	if self == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, id)
	}

	value, err := self.Invoke(id, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	return value, nil
}
