package proxy

import "github.com/invakid404/fluid/factory"

// Proxy stands behind one fluent builder value. When the builder accumulates
// arguments it is backed by a Factory.
type Proxy struct {
	interp  *Interpreter
	block   string
	factory factory.Factory
	ctx     *factory.Context
}

// Block names the block interface this proxy implements.
func (p *Proxy) Block() string {
	return p.block
}

// Factory is nil for proxies that only route calls.
func (p *Proxy) Factory() factory.Factory {
	return p.factory
}

func (p *Proxy) Context() *factory.Context {
	return p.ctx
}

func (p *Proxy) Interpreter() *Interpreter {
	return p.interp
}

// Invoke dispatches method id with args through the proxy's interpreter.
func (p *Proxy) Invoke(id string, args ...any) (any, error) {
	return p.interp.Invoke(p, id, args...)
}

// Slot receives the proxy for the block a method call opens.
type Slot struct {
	block string
	proxy *Proxy
}

func NewSlot(block string) *Slot {
	return &Slot{block: block}
}

func (s *Slot) Block() string {
	return s.block
}

// Proxy is nil until a call binds the slot.
func (s *Slot) Proxy() *Proxy {
	return s.proxy
}

// Bind hands p to whoever passed the slot. A slot binds once.
func (s *Slot) Bind(p *Proxy) error {
	if s.proxy != nil {
		return &SlotError{Method: s.block, Reason: "slot already bound"}
	}
	s.proxy = p

	return nil
}
