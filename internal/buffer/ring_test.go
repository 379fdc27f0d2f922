package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_WriteRead(t *testing.T) {
	r := New(8)
	n := r.Write([]byte("hello"))
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 3, r.Free())
	assert.Equal(t, []byte("hello"), r.LinearReadView())
}

func TestRing_BoundedWrite(t *testing.T) {
	r := New(4)
	n := r.Write([]byte("hello world"))
	assert.Equal(t, 4, n)
	assert.Equal(t, 0, r.Free())
}

func TestRing_SkipAndWrap(t *testing.T) {
	r := New(4)
	r.Write([]byte("ab"))
	r.Skip(2)
	n := r.Write([]byte("cdef"))
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, r.Len())

	view := r.LinearReadView()
	assert.Equal(t, []byte("cd"), view)
	r.Skip(len(view))
	view = r.LinearReadView()
	assert.Equal(t, []byte("ef"), view)
	r.Skip(len(view))
	assert.Equal(t, 0, r.Len())
}

func TestRing_ResetWhenEmpty(t *testing.T) {
	r := New(4)
	r.Write([]byte("ab"))
	r.Skip(2)
	assert.Equal(t, 0, r.Len())
	r.Reset()
	n := r.Write([]byte("wxyz"))
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("wxyz"), r.LinearReadView())
}
