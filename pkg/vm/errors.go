package vm

import "errors"

// Resource-exhaustion error kinds: returned to the caller, never fatal.
var (
	ErrNoFreeFrame  = errors.New("vm: no free physical frame (swap disabled)")
	ErrTooManyPages = errors.New("vm: virtual address outside the address space")
)
