// Package mailbox provides single-slot handoff cells between execution
// contexts. Every access takes the shared critical section only for the
// slot operation itself.
package mailbox

import (
	"errors"
	"fmt"

	"github.com/robotalks/rig.go/pkg/hal"
)

// Policy selects the behavior of a slot which already holds a value.
type Policy int

const (
	// Overwrite replaces the previous value, reads are non-destructive.
	Overwrite Policy = iota
	// RejectIfFull refuses new values until the slot is drained.
	RejectIfFull
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case RejectIfFull:
		return "reject-if-full"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy parses the String form of a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "overwrite", "":
		return Overwrite, nil
	case "reject-if-full":
		return RejectIfFull, nil
	}
	return Overwrite, fmt.Errorf("unknown mailbox policy %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ErrFull is matched by every FullError using errors.Is.
var ErrFull = errors.New("mailbox full")

// FullError returns a rejected value to the sender.
type FullError[T any] struct {
	Value T
}

// Error implements error.
func (e *FullError[T]) Error() string {
	return ErrFull.Error()
}

// Is supports errors.Is(err, ErrFull).
func (e *FullError[T]) Is(target error) bool {
	return target == ErrFull
}

type slot[T any] struct {
	cs    hal.CriticalSection
	value T
	full  bool
}

// Cell is a mailbox with the Overwrite policy, used for continuously
// refreshed set-points. Intermediate values may be lost.
type Cell[T any] struct {
	slot slot[T]
}

// NewCell creates an empty Cell.
func NewCell[T any](cs hal.CriticalSection) *Cell[T] {
	return &Cell[T]{slot: slot[T]{cs: cs}}
}

// NewCellWith creates a Cell holding an initial value.
func NewCellWith[T any](cs hal.CriticalSection, v T) *Cell[T] {
	return &Cell[T]{slot: slot[T]{cs: cs, value: v, full: true}}
}

// Set stores v, replacing any previous value. It never fails.
func (c *Cell[T]) Set(v T) {
	c.slot.cs.Do(func() {
		c.slot.value, c.slot.full = v, true
	})
}

// Get returns the latest value without consuming it.
func (c *Cell[T]) Get() (v T, ok bool) {
	c.slot.cs.Do(func() {
		v, ok = c.slot.value, c.slot.full
	})
	return
}

// Slot is a mailbox with the RejectIfFull policy, used for one-shot
// commands which must not be silently dropped.
type Slot[T any] struct {
	slot slot[T]
}

// NewSlot creates an empty Slot.
func NewSlot[T any](cs hal.CriticalSection) *Slot[T] {
	return &Slot[T]{slot: slot[T]{cs: cs}}
}

// Send stores v if the slot is empty. Otherwise the slot is left intact
// and a *FullError carrying v is returned.
func (s *Slot[T]) Send(v T) error {
	var accepted bool
	s.slot.cs.Do(func() {
		if !s.slot.full {
			s.slot.value, s.slot.full = v, true
			accepted = true
		}
	})
	if !accepted {
		return &FullError[T]{Value: v}
	}
	return nil
}

// Recv takes the value out of the slot, leaving it empty.
func (s *Slot[T]) Recv() (v T, ok bool) {
	var zero T
	s.slot.cs.Do(func() {
		v, ok = s.slot.value, s.slot.full
		s.slot.value, s.slot.full = zero, false
	})
	return
}

// Peek returns the pending value without taking it.
func (s *Slot[T]) Peek() (v T, ok bool) {
	s.slot.cs.Do(func() {
		v, ok = s.slot.value, s.slot.full
	})
	return
}
