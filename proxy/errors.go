package proxy

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod = errors.New("proxy: unknown method")
	ErrUnknownType   = errors.New("proxy: unknown type")
	ErrSlot          = errors.New("proxy: result slot cannot be bound")
	ErrArity         = errors.New("proxy: too many arguments")
	ErrNoReceiver    = errors.New("proxy: nil receiver")
)

type UnknownMethodError struct {
	ID string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownMethod, e.ID)
}

func (e *UnknownMethodError) Unwrap() error {
	return ErrUnknownMethod
}

type UnknownTypeError struct {
	Method string
	Type   string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%v %q in %s", ErrUnknownType, e.Type, e.Method)
}

func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}

// SlotError is returned when a result slot passed to a method is nil or was
// already bound by an earlier call.
type SlotError struct {
	Method string
	Reason string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrSlot, e.Method, e.Reason)
}

func (e *SlotError) Unwrap() error {
	return ErrSlot
}
