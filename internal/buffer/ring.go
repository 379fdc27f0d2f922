/*
 *    Copyright 2021 chenquan
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package buffer implements the fixed-size single-producer/single-consumer
// ring used to stage outgoing MQTT bytes before they are handed to a
// transport. It intentionally does not use bytes.Buffer: the transport needs
// a contiguous read view it can hand to a non-blocking send call without a
// copy, plus a skip-without-copy acknowledgement of bytes the transport has
// durably accepted.
package buffer

// Ring is a fixed-capacity byte ring buffer. The zero value is not usable;
// construct with New.
type Ring struct {
	buf  []byte
	r, w int
	full bool
}

// New allocates a ring with the given capacity in bytes.
func New(size int) *Ring {
	return &Ring{buf: make([]byte, size)}
}

// Cap returns the total capacity of the ring.
func (b *Ring) Cap() int {
	return len(b.buf)
}

// Len returns the number of unread bytes currently queued.
func (b *Ring) Len() int {
	if b.full {
		return len(b.buf)
	}
	if b.w >= b.r {
		return b.w - b.r
	}
	return len(b.buf) - b.r + b.w
}

// Free returns the number of bytes that can still be written.
func (b *Ring) Free() int {
	return len(b.buf) - b.Len()
}

// Write copies as much of p into the ring as fits and returns the number of
// bytes actually written. It never blocks; input beyond Free() is dropped.
// The engine's encodeAndEnqueue compares the encoded packet's size against
// Free() before calling Write, so its writes are always full writes.
func (b *Ring) Write(p []byte) int {
	free := b.Free()
	if len(p) > free {
		p = p[:free]
	}
	n := len(p)
	if n == 0 {
		return 0
	}
	tail := len(b.buf) - b.w
	if n <= tail {
		copy(b.buf[b.w:], p)
	} else {
		copy(b.buf[b.w:], p[:tail])
		copy(b.buf, p[tail:])
	}
	b.w = (b.w + n) % len(b.buf)
	if n > 0 {
		b.full = b.w == b.r
	}
	return n
}

// LinearReadView returns the longest contiguous readable slice starting at
// the read cursor, without copying. When the unread region wraps past the
// end of the backing array, only the first (tail) segment is returned; the
// caller will see the rest on a subsequent call after Skip.
func (b *Ring) LinearReadView() []byte {
	if b.Len() == 0 {
		return nil
	}
	if b.r < b.w {
		return b.buf[b.r:b.w]
	}
	// Wrapped (or full with w <= r): readable bytes run contiguously from r
	// to the end of the backing array; the remainder (if any) becomes
	// visible on the next call after Skip crosses the wrap point.
	return b.buf[b.r:]
}

// Skip advances the read cursor by n bytes, which the caller asserts have
// been durably accepted (e.g. by a transport send completion callback). n
// must not exceed Len().
func (b *Ring) Skip(n int) {
	if n <= 0 {
		return
	}
	if n > b.Len() {
		n = b.Len()
	}
	b.r = (b.r + n) % len(b.buf)
	if n > 0 {
		b.full = false
	}
}

// Reset discards all queued content and realigns the read/write cursors to
// zero, restoring single-shot contiguous writes for the next packet. The
// caller (see engine's send path) must never call Reset while a transport
// send is in flight (is_sending), since that would invalidate the view the
// transport is reading from.
func (b *Ring) Reset() {
	b.r, b.w, b.full = 0, 0, false
}
