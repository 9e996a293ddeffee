package alloc

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicate(t *testing.T) {
	requireT := require.New(t)

	data := []byte{0x01, 0x02, 0x03}
	b, err := Duplicate(Heap{}, data)
	requireT.NoError(err)
	requireT.Equal(data, b)

	data[0] = 0xff
	requireT.EqualValues(0x01, b[0])
}

func TestDuplicateFailure(t *testing.T) {
	requireT := require.New(t)

	b, err := Duplicate(NewBudget(2), []byte{0x01, 0x02, 0x03})
	requireT.ErrorIs(err, ErrOutOfMemory)
	requireT.Nil(b)
}

func TestHeapResizeSlots(t *testing.T) {
	requireT := require.New(t)

	slots, err := Heap{}.AllocateSlots(2)
	requireT.NoError(err)
	slots[0] = []byte{0x01}
	slots[1] = []byte{0x02}

	slots, err = Heap{}.ResizeSlots(slots, 4)
	requireT.NoError(err)
	requireT.Len(slots, 4)
	requireT.Equal([]byte{0x01}, slots[0])
	requireT.Equal([]byte{0x02}, slots[1])
	requireT.Nil(slots[2])
	requireT.Nil(slots[3])
}

func TestHeapResizeSlotsShrink(t *testing.T) {
	requireT := require.New(t)

	slots, err := Heap{}.AllocateSlots(4)
	requireT.NoError(err)

	resized, err := Heap{}.ResizeSlots(slots, 2)
	requireT.Error(err)
	requireT.NotErrorIs(err, ErrOutOfMemory)
	requireT.Nil(resized)
	requireT.Len(slots, 4)
}

func TestHeapLimit(t *testing.T) {
	requireT := require.New(t)

	b, err := Heap{}.Allocate(math.MaxInt)
	requireT.ErrorIs(err, ErrOutOfMemory)
	requireT.Nil(b)

	slots, err := Heap{}.AllocateSlots(math.MaxInt)
	requireT.ErrorIs(err, ErrOutOfMemory)
	requireT.Nil(slots)

	slots, err = Heap{}.AllocateSlots(1 << 62)
	requireT.ErrorIs(err, ErrOutOfMemory)
	requireT.Nil(slots)

	h := Heap{Limit: 4 * SlotSize}

	slots, err = h.AllocateSlots(4)
	requireT.NoError(err)
	requireT.Len(slots, 4)

	_, err = h.AllocateSlots(5)
	requireT.ErrorIs(err, ErrOutOfMemory)

	_, err = h.ResizeSlots(slots, 8)
	requireT.ErrorIs(err, ErrOutOfMemory)

	b, err = h.Allocate(int(4 * SlotSize))
	requireT.NoError(err)
	requireT.Len(b, int(4*SlotSize))

	_, err = h.Allocate(int(4*SlotSize) + 1)
	requireT.ErrorIs(err, ErrOutOfMemory)
}

func TestHeapInvalidSize(t *testing.T) {
	requireT := require.New(t)

	_, err := Heap{}.Allocate(0)
	requireT.Error(err)
	requireT.NotErrorIs(err, ErrOutOfMemory)

	_, err = Heap{}.AllocateSlots(-1)
	requireT.Error(err)
	requireT.NotErrorIs(err, ErrOutOfMemory)
}

func TestBudgetAccounting(t *testing.T) {
	requireT := require.New(t)

	budget := NewBudget(100)

	b1, err := budget.Allocate(10)
	requireT.NoError(err)
	b2, err := budget.Allocate(20)
	requireT.NoError(err)
	slots, err := budget.AllocateSlots(2)
	requireT.NoError(err)

	stats := budget.Stats()
	requireT.EqualValues(30+2*SlotSize, stats.InUse)
	requireT.EqualValues(3, stats.Allocations)
	requireT.EqualValues(0, stats.Releases)
	requireT.Equal(3, stats.Live)

	budget.Free(b1)
	budget.Free(b2)
	budget.FreeSlots(slots)

	stats = budget.Stats()
	requireT.EqualValues(0, stats.InUse)
	requireT.EqualValues(30+2*SlotSize, stats.Peak)
	requireT.EqualValues(3, stats.Releases)
	requireT.Zero(stats.Live)
}

func TestBudgetExhausted(t *testing.T) {
	requireT := require.New(t)

	budget := NewBudget(10)
	_, err := budget.Allocate(10)
	requireT.NoError(err)

	_, err = budget.Allocate(1)
	requireT.ErrorIs(err, ErrOutOfMemory)

	_, err = budget.AllocateSlots(1)
	requireT.ErrorIs(err, ErrOutOfMemory)

	requireT.EqualValues(10, budget.Stats().InUse)
	requireT.EqualValues(1, budget.Stats().Allocations)
}

func TestBudgetResizeSlots(t *testing.T) {
	requireT := require.New(t)

	budget := NewBudget(3 * SlotSize)
	slots, err := budget.AllocateSlots(1)
	requireT.NoError(err)
	slots[0] = []byte{0x01}

	_, err = budget.ResizeSlots(slots, 4)
	requireT.ErrorIs(err, ErrOutOfMemory)
	requireT.EqualValues(SlotSize, budget.Stats().InUse)

	resized, err := budget.ResizeSlots(slots, 2)
	requireT.NoError(err)
	requireT.Len(resized, 2)
	requireT.Equal([]byte{0x01}, resized[0])
	requireT.EqualValues(2*SlotSize, budget.Stats().InUse)
	requireT.EqualValues(1, budget.Stats().Allocations)

	budget.FreeSlots(resized)
	requireT.Zero(budget.Stats().InUse)
	requireT.Zero(budget.Stats().Live)
}

func TestBudgetUnknownRelease(t *testing.T) {
	assertT := assert.New(t)

	budget := NewBudget(100)
	assertT.Panics(func() {
		budget.Free(make([]byte, 1))
	})
	assertT.Panics(func() {
		budget.FreeSlots(make([][]byte, 1))
	})

	b, err := budget.Allocate(1)
	assertT.NoError(err)
	budget.Free(b)
	assertT.Panics(func() {
		budget.Free(b)
	})
}

func TestFault(t *testing.T) {
	requireT := require.New(t)

	budget := NewBudget(1000)
	fault := NewFault(budget, FailOps(OpResizeSlots))

	slots, err := fault.AllocateSlots(2)
	requireT.NoError(err)

	_, err = fault.ResizeSlots(slots, 4)
	requireT.ErrorIs(err, ErrOutOfMemory)
	requireT.EqualValues(2*SlotSize, budget.Stats().InUse)

	fault.SetFailFunc(FailAbove(OpAllocate, 8))
	_, err = fault.Allocate(9)
	requireT.ErrorIs(err, ErrOutOfMemory)
	b, err := fault.Allocate(8)
	requireT.NoError(err)

	fault.SetFailFunc(nil)
	slots, err = fault.ResizeSlots(slots, 4)
	requireT.NoError(err)

	fault.Free(b)
	fault.FreeSlots(slots)
	requireT.Zero(budget.Stats().InUse)
	requireT.Zero(budget.Stats().Live)
}

func TestMetrics(t *testing.T) {
	requireT := require.New(t)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(NewBudget(100), reg)
	requireT.NoError(err)

	b, err := m.Allocate(10)
	requireT.NoError(err)
	slots, err := m.AllocateSlots(1)
	requireT.NoError(err)
	slots, err = m.ResizeSlots(slots, 2)
	requireT.NoError(err)

	_, err = m.Allocate(1000)
	requireT.ErrorIs(err, ErrOutOfMemory)

	requireT.InDelta(float64(10+2*SlotSize), testutil.ToFloat64(m.allocatedBytes), 0)
	requireT.InDelta(float64(10+2*SlotSize), testutil.ToFloat64(m.inUseBytes), 0)
	requireT.InDelta(2, testutil.ToFloat64(m.inUseObjects), 0)
	requireT.InDelta(1, testutil.ToFloat64(m.failures.WithLabelValues(OpAllocate.String())), 0)

	m.Free(b)
	m.FreeSlots(slots)

	requireT.InDelta(0, testutil.ToFloat64(m.inUseBytes), 0)
	requireT.InDelta(0, testutil.ToFloat64(m.inUseObjects), 0)

	_, err = NewMetrics(Heap{}, reg)
	requireT.Error(err)
}
