package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_CreateFullAndDelete(t *testing.T) {
	tbl := New(2)
	s1 := tbl.Create(KindPublish, 1, "a")
	s2 := tbl.Create(KindPublish, 2, "b")
	assert.NotNil(t, s1)
	assert.NotNil(t, s2)
	assert.Nil(t, tbl.Create(KindPublish, 3, "c"))
	assert.Equal(t, 2, tbl.InUseCount())

	tbl.Delete(s1)
	assert.Equal(t, 1, tbl.InUseCount())
	s3 := tbl.Create(KindSubscribe, 3, "c")
	assert.NotNil(t, s3)
}

func TestTable_FindPending(t *testing.T) {
	tbl := New(4)
	s := tbl.Create(KindPublish, 5, "arg5")
	tbl.SetPending(s, 10)

	got := tbl.FindPending(5)
	assert.Same(t, s, got)
	assert.Nil(t, tbl.FindPending(6))
}

func TestTable_ResolveSentQoS0_InOrder(t *testing.T) {
	tbl := New(4)
	s1 := tbl.Create(KindPublish, 0, "first")
	tbl.SetPending(s1, 0)
	tbl.SetExpectedSentLen(s1, 10)

	s2 := tbl.Create(KindPublish, 0, "second")
	tbl.SetPending(s2, 0)
	tbl.SetExpectedSentLen(s2, 20)

	var resolved []interface{}
	tbl.ResolveSentQoS0(5, func(s *Slot) { resolved = append(resolved, s.Arg()) })
	assert.Empty(t, resolved)

	tbl.ResolveSentQoS0(10, func(s *Slot) { resolved = append(resolved, s.Arg()) })
	assert.Equal(t, []interface{}{"first"}, resolved)

	tbl.ResolveSentQoS0(25, func(s *Slot) { resolved = append(resolved, s.Arg()) })
	assert.Equal(t, []interface{}{"first", "second"}, resolved)
	assert.Equal(t, 0, tbl.InUseCount())
}

func TestTable_ForEachPendingThenReset(t *testing.T) {
	tbl := New(4)
	s1 := tbl.Create(KindPublish, 1, nil)
	tbl.SetPending(s1, 0)
	s2 := tbl.Create(KindSubscribe, 2, nil)
	tbl.SetPending(s2, 0)

	var seen []uint16
	tbl.ForEachPending(func(s Slot) { seen = append(seen, s.PacketID()) })
	assert.ElementsMatch(t, []uint16{1, 2}, seen)
	assert.Equal(t, 0, tbl.InUseCount())

	tbl.Reset()
	assert.Equal(t, 0, tbl.InUseCount())
}
