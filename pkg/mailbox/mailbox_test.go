package mailbox

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rig.go/pkg/hal"
)

type countingSection struct {
	hal.Lock
	entered int
}

func (c *countingSection) Do(fn func()) {
	c.Lock.Do(func() {
		c.entered++
		fn()
	})
}

func TestCellOverwrite(t *testing.T) {
	cell := NewCell[int32](hal.NewLock())
	_, ok := cell.Get()
	require.False(t, ok)

	cell.Set(1)
	cell.Set(2)
	v, ok := cell.Get()
	require.True(t, ok)
	require.Equal(t, int32(2), v)

	v, ok = cell.Get()
	require.True(t, ok, "Get must not consume")
	require.Equal(t, int32(2), v)
}

func TestCellWithInitialValue(t *testing.T) {
	cell := NewCellWith(hal.NewLock(), "idle")
	v, ok := cell.Get()
	require.True(t, ok)
	require.Equal(t, "idle", v)
}

func TestSlotRejectIfFull(t *testing.T) {
	s := NewSlot[int](hal.NewLock())
	require.NoError(t, s.Send(7))

	err := s.Send(9)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrFull))
	var full *FullError[int]
	require.True(t, errors.As(err, &full))
	require.Equal(t, 9, full.Value)

	v, ok := s.Peek()
	require.True(t, ok)
	require.Equal(t, 7, v)

	v, ok = s.Recv()
	require.True(t, ok)
	require.Equal(t, 7, v)

	_, ok = s.Recv()
	require.False(t, ok, "Recv must consume")

	require.NoError(t, s.Send(9))
}

func TestCriticalSectionTaken(t *testing.T) {
	cs := &countingSection{}
	cell := NewCell[int](cs)
	slot := NewSlot[int](cs)
	cell.Set(1)
	cell.Get()
	slot.Send(1)
	slot.Send(2)
	slot.Recv()
	require.Equal(t, 5, cs.entered)
}

func TestSlotConcurrentSenders(t *testing.T) {
	s := NewSlot[int](hal.NewLock())
	var wg sync.WaitGroup
	results := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			results <- s.Send(v)
		}(i)
	}
	wg.Wait()
	close(results)
	var accepted, rejected int
	for err := range results {
		if err == nil {
			accepted++
		} else {
			require.True(t, errors.Is(err, ErrFull))
			rejected++
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, 15, rejected)
}

func TestPolicy(t *testing.T) {
	testCases := []struct {
		text   string
		policy Policy
	}{
		{"overwrite", Overwrite},
		{"", Overwrite},
		{"reject-if-full", RejectIfFull},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			var p Policy
			require.NoError(t, p.UnmarshalText([]byte(tc.text)))
			require.Equal(t, tc.policy, p)
		})
	}
	_, err := ParsePolicy("drop")
	require.Error(t, err)
	require.Equal(t, "reject-if-full", RejectIfFull.String())
}
