// Package pool holds reusable scratch values for the rendering paths of the
// fluid commands.
package pool

import (
	"bytes"
	"sync"
)

// Pool is a typed sync.Pool. Values are reset before they are handed out
// again.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

func New[T any](new func() T, reset func(T)) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return new()
			},
		},
		reset: reset,
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(x T) {
	if p.reset != nil {
		p.reset(x)
	}
	p.pool.Put(x)
}

// Buffers is shared by everything that renders descriptors, graphs or source
// into memory before writing them out.
var Buffers = New(func() *bytes.Buffer {
	return new(bytes.Buffer)
}, (*bytes.Buffer).Reset)
